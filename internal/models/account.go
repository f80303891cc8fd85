package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
)

// Account represents a named monetary bucket with a running balance. Accounts
// are owned by exactly one user and their balance field is mutated only
// through the balance engine's write path.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Document field keys for accounts.
const (
	FieldName           = "name"
	FieldBalance        = "balance"
	FieldInitialBalance = "initialBalance"
)

// Fields encodes the account into document store fields. Monetary values are
// stored as decimal strings so they survive JSON round-trips without losing
// precision.
func (a Account) Fields() map[string]any {
	return map[string]any{
		FieldName:           a.Name,
		FieldBalance:        a.Balance.String(),
		FieldInitialBalance: a.InitialBalance.String(),
	}
}

// DecodeAccount decodes a store document into an Account.
func DecodeAccount(doc docstore.Document) (Account, error) {
	name, err := stringField(doc.Fields, FieldName)
	if err != nil {
		return Account{}, fmt.Errorf("account %s: %w", doc.ID, err)
	}
	balance, err := decimalField(doc.Fields, FieldBalance)
	if err != nil {
		return Account{}, fmt.Errorf("account %s: %w", doc.ID, err)
	}
	initial, err := decimalField(doc.Fields, FieldInitialBalance)
	if err != nil {
		return Account{}, fmt.Errorf("account %s: %w", doc.ID, err)
	}

	return Account{
		ID:             doc.ID,
		Name:           name,
		Balance:        balance,
		InitialBalance: initial,
		CreatedAt:      doc.CreatedAt,
	}, nil
}
