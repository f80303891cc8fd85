package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
)

// TransactionKind represents the direction of a transaction.
type TransactionKind string

const (
	KindCredit TransactionKind = "credit"
	KindDebit  TransactionKind = "debit"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	return k == KindCredit || k == KindDebit
}

// Transaction is an immutable monetary event against one account. Amount is
// an unsigned magnitude; Kind carries the sign. CreatedAt is assigned by the
// store on append and is monotonic within a user's transaction collection.
type Transaction struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Kind       TransactionKind `json:"kind"`
	RequestID  string          `json:"request_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Document field keys for transactions.
const (
	FieldAccount   = "account"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldKind      = "kind"
	FieldRequestID = "requestId"
)

// Signed returns the transaction amount with its sign applied: positive for
// credits, negative for debits.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == KindDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Fields encodes the transaction into document store fields.
func (t Transaction) Fields() map[string]any {
	return map[string]any{
		FieldAccount:   t.AccountID,
		FieldCategory:  t.CategoryID,
		FieldAmount:    t.Amount.String(),
		FieldKind:      string(t.Kind),
		FieldRequestID: t.RequestID,
	}
}

// DecodeTransaction decodes a store document into a Transaction.
func DecodeTransaction(doc docstore.Document) (Transaction, error) {
	accountID, err := stringField(doc.Fields, FieldAccount)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: %w", doc.ID, err)
	}
	amount, err := decimalField(doc.Fields, FieldAmount)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: %w", doc.ID, err)
	}
	kindStr, err := stringField(doc.Fields, FieldKind)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: %w", doc.ID, err)
	}
	kind := TransactionKind(kindStr)
	if !kind.Valid() {
		return Transaction{}, fmt.Errorf("transaction %s: unknown kind %q", doc.ID, kindStr)
	}

	// Category and request id are optional; older documents may lack them.
	categoryID, _ := stringField(doc.Fields, FieldCategory)
	requestID, _ := stringField(doc.Fields, FieldRequestID)

	return Transaction{
		ID:         doc.ID,
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     amount,
		Kind:       kind,
		RequestID:  requestID,
		CreatedAt:  doc.CreatedAt,
	}, nil
}
