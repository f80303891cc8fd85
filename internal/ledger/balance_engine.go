package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	apperrors "github.com/Facundo-Gordillo/MYFINANCES/internal/errors"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/logger"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/models"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/uuid"
)

// balanceRetryLimit bounds the conditional-update loop when concurrent
// writers keep touching the same account balance.
const balanceRetryLimit = 5

// BalanceEngine is the single write path that appends a transaction and
// reflects its effect on the owning account's balance.
//
// The protocol is append-then-adjust: the transaction document is the durable
// record of intent and is written first; the balance is then updated with a
// conditional write on the previously observed value, retried on conflict.
// The two writes are not atomic as a pair — if the account vanishes between
// them, the appended transaction stays behind as an orphan and the error says
// so rather than hiding it. Reconcile repairs such drift on demand.
type BalanceEngine struct {
	store docstore.Store
	users UserFunc
	log   *zap.SugaredLogger
}

// NewBalanceEngine creates a BalanceEngine resolving the acting user through
// users.
func NewBalanceEngine(store docstore.Store, users UserFunc) *BalanceEngine {
	return &BalanceEngine{
		store: store,
		users: users,
		log:   logger.Named("balance"),
	}
}

// RecordInput describes a proposed transaction. Amount is an unsigned
// magnitude; Kind carries the sign. RequestID makes retries of the same
// logical submit detectable; when empty, a fresh id is generated (one call,
// one transaction).
type RecordInput struct {
	AccountID  string
	CategoryID string
	Amount     decimal.Decimal
	Kind       models.TransactionKind
	RequestID  string
}

// Record appends the transaction and adjusts the account balance.
func (e *BalanceEngine) Record(ctx context.Context, in RecordInput) error {
	userID, ok := e.users()
	if !ok {
		return apperrors.ErrAuthRequired
	}

	if !in.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !in.Kind.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "kind must be credit or debit")
	}
	if in.AccountID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account id is required")
	}
	if in.RequestID == "" {
		in.RequestID = uuid.New()
	}

	// Re-check the target account directly against the store. The local
	// mirror may be behind; a stale positive here still narrows the window.
	accountPath := docstore.DocumentPath(docstore.AccountsCollection(userID), in.AccountID)
	if _, err := e.store.Read(ctx, accountPath); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return apperrors.Wrap(apperrors.ErrReadFailed, err)
	}

	// A retried submit with the same request id must not double-append.
	transactionsPath := docstore.TransactionsCollection(userID)
	snap, err := e.store.List(ctx, transactionsPath)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrReadFailed, err)
	}
	for _, doc := range snap {
		if doc.Fields[models.FieldRequestID] == in.RequestID {
			e.log.Infow("duplicate request id, treating as already recorded",
				"request_id", in.RequestID, "transaction", doc.ID)
			return nil
		}
	}

	// Step 1: the durable record of intent. Nothing else happens unless
	// this lands.
	record := models.Transaction{
		AccountID:  in.AccountID,
		CategoryID: in.CategoryID,
		Amount:     in.Amount,
		Kind:       in.Kind,
		RequestID:  in.RequestID,
	}
	transactionID, err := e.store.Append(ctx, transactionsPath, record.Fields())
	if err != nil {
		return apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}

	// Steps 2-4: read the current balance, compute, write back conditioned
	// on the value read.
	return e.adjustBalance(ctx, accountPath, record.Signed(), transactionID)
}

func (e *BalanceEngine) adjustBalance(ctx context.Context, accountPath string, delta decimal.Decimal, transactionID string) error {
	for attempt := 0; attempt < balanceRetryLimit; attempt++ {
		doc, err := e.store.Read(ctx, accountPath)
		if errors.Is(err, docstore.ErrNotFound) {
			return e.orphaned(transactionID)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrReadFailed, err)
		}
		account, err := models.DecodeAccount(doc)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrReadFailed, err)
		}

		newBalance := account.Balance.Add(delta)
		err = e.store.Apply(ctx, accountPath,
			map[string]any{models.FieldBalance: newBalance.String()},
			// Condition on the raw stored value, not a re-rendered decimal,
			// so the comparison is exact.
			docstore.Precondition{Field: models.FieldBalance, Equals: doc.Fields[models.FieldBalance]},
		)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, docstore.ErrConflict):
			e.log.Debugw("balance conflict, retrying", "attempt", attempt+1, "transaction", transactionID)
			continue
		case errors.Is(err, docstore.ErrNotFound):
			return e.orphaned(transactionID)
		default:
			return apperrors.Wrap(apperrors.ErrWriteFailed, err)
		}
	}
	return apperrors.WithMessage(apperrors.ErrConflict,
		"balance update kept conflicting with concurrent writers; reconcile the account")
}

// orphaned reports an account that vanished after the transaction append.
// The appended transaction is deliberately left in place: it is the durable
// record of intent, and hiding the gap would be worse than surfacing it.
func (e *BalanceEngine) orphaned(transactionID string) error {
	e.log.Errorw("account removed after transaction append; orphan left for cleanup",
		"transaction", transactionID)
	return apperrors.WithMessage(apperrors.ErrAccountNotFound,
		"account removed while recording transaction "+transactionID)
}

// Reconcile recomputes an account's balance as its initial balance plus the
// full signed sum of its transactions and writes the result back. It is the
// explicit repair for drift left by interrupted Record calls; it is never run
// automatically.
func (e *BalanceEngine) Reconcile(ctx context.Context, accountID string) (decimal.Decimal, error) {
	userID, ok := e.users()
	if !ok {
		return decimal.Zero, apperrors.ErrAuthRequired
	}

	accountPath := docstore.DocumentPath(docstore.AccountsCollection(userID), accountID)
	doc, err := e.store.Read(ctx, accountPath)
	if errors.Is(err, docstore.ErrNotFound) {
		return decimal.Zero, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrReadFailed, err)
	}
	account, err := models.DecodeAccount(doc)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrReadFailed, err)
	}

	snap, err := e.store.List(ctx, docstore.TransactionsCollection(userID))
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrReadFailed, err)
	}

	balance := account.InitialBalance
	for _, txDoc := range snap {
		transaction, decodeErr := models.DecodeTransaction(txDoc)
		if decodeErr != nil {
			e.log.Warnw("skipping undecodable transaction during reconciliation",
				"id", txDoc.ID, "error", decodeErr)
			continue
		}
		if transaction.AccountID != accountID {
			continue
		}
		balance = balance.Add(transaction.Signed())
	}

	err = e.store.Update(ctx, accountPath, map[string]any{models.FieldBalance: balance.String()})
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}
	return balance, nil
}
