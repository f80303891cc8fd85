package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	apperrors "github.com/Facundo-Gordillo/MYFINANCES/internal/errors"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/livesync"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/models"
)

// Sentinels used when a transaction's references cannot be resolved. A
// deleted category or a not-yet-synced account must degrade to these, never
// to an error: the three collection mirrors update independently and a lookup
// can legitimately race ahead of its target.
const (
	UncategorizedLabel = "Uncategorized"
	UncategorizedColor = "#ccc"
	UnknownAccountName = "Unknown account"
)

// EnrichedTransaction is a transaction joined with the display attributes of
// its category and account, with sentinel fallbacks for unresolved
// references.
type EnrichedTransaction struct {
	models.Transaction
	CategoryLabel string `json:"category_label"`
	CategoryColor string `json:"category_color"`
	AccountName   string `json:"account_name"`
}

// Store owns the three live collection mirrors for exactly one signed-in
// user. It is created on sign-in and must be closed on sign-out or user
// change; Close cancels every subscription.
type Store struct {
	userID       string
	accounts     *livesync.Collection[models.Account]
	categories   *livesync.Collection[models.Category]
	transactions *livesync.Collection[models.Transaction]

	closeOnce sync.Once
}

// NewStore opens the three collection subscriptions for userID. On failure,
// any subscription already opened is torn down before returning.
func NewStore(ctx context.Context, ds docstore.Store, userID string) (*Store, error) {
	if userID == "" {
		return nil, apperrors.ErrAuthRequired
	}

	s := &Store{
		userID:       userID,
		accounts:     livesync.NewCollection(ds, models.DecodeAccount),
		categories:   livesync.NewCollection(ds, models.DecodeCategory),
		transactions: livesync.NewCollection(ds, models.DecodeTransaction),
	}

	starts := []struct {
		collection interface{ Stop() }
		start      func() error
	}{
		{s.accounts, func() error { return s.accounts.Start(ctx, docstore.AccountsCollection(userID)) }},
		{s.categories, func() error { return s.categories.Start(ctx, docstore.CategoriesCollection(userID)) }},
		{s.transactions, func() error { return s.transactions.Start(ctx, docstore.TransactionsCollection(userID)) }},
	}
	for i, item := range starts {
		if err := item.start(); err != nil {
			for j := 0; j < i; j++ {
				starts[j].collection.Stop()
			}
			return nil, err
		}
	}

	return s, nil
}

// UserID returns the owning user's id.
func (s *Store) UserID() string { return s.userID }

// OnChange registers fn to run whenever any of the three mirrors applies a
// new snapshot or records a subscription error.
func (s *Store) OnChange(fn func()) {
	s.accounts.OnChange(fn)
	s.categories.OnChange(fn)
	s.transactions.OnChange(fn)
}

// Accounts returns the mirrored accounts ordered by name, ties broken by id.
func (s *Store) Accounts() []models.Account {
	accounts := s.accounts.Snapshot()
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Name == accounts[j].Name {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].Name < accounts[j].Name
	})
	return accounts
}

// Categories returns the mirrored categories ordered by name, ties broken by
// id.
func (s *Store) Categories() []models.Category {
	categories := s.categories.Snapshot()
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Name == categories[j].Name {
			return categories[i].ID < categories[j].ID
		}
		return categories[i].Name < categories[j].Name
	})
	return categories
}

// Transactions returns the mirrored transactions newest first. Ties on the
// creation timestamp fall back to the store-assigned id so the order stays
// stable across re-subscriptions.
func (s *Store) Transactions() []models.Transaction {
	transactions := s.transactions.Snapshot()
	sort.Slice(transactions, func(i, j int) bool {
		if transactions[i].CreatedAt.Equal(transactions[j].CreatedAt) {
			return transactions[i].ID < transactions[j].ID
		}
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})
	return transactions
}

// EnrichedTransactions returns the transaction view joined with category
// colors and account names, newest first. Unresolved references degrade to
// the sentinel values.
func (s *Store) EnrichedTransactions() []EnrichedTransaction {
	categoriesByID := make(map[string]models.Category)
	for _, c := range s.categories.Snapshot() {
		categoriesByID[c.ID] = c
	}
	accountsByID := make(map[string]models.Account)
	for _, a := range s.accounts.Snapshot() {
		accountsByID[a.ID] = a
	}

	transactions := s.Transactions()
	enriched := make([]EnrichedTransaction, 0, len(transactions))
	for _, t := range transactions {
		e := EnrichedTransaction{
			Transaction:   t,
			CategoryLabel: UncategorizedLabel,
			CategoryColor: UncategorizedColor,
			AccountName:   UnknownAccountName,
		}
		if c, ok := categoriesByID[t.CategoryID]; ok {
			e.CategoryLabel = c.Name
			e.CategoryColor = c.Color
		}
		if a, ok := accountsByID[t.AccountID]; ok {
			e.AccountName = a.Name
		}
		enriched = append(enriched, e)
	}
	return enriched
}

// Err reports the sync-error state across the three mirrors, nil while all
// subscriptions are healthy. Mirrors keep serving their last known good
// snapshots while an error is pending.
func (s *Store) Err() error {
	return errors.Join(s.accounts.Err(), s.categories.Err(), s.transactions.Err())
}

// Close cancels all three subscriptions. It is idempotent and safe to call
// concurrently with in-flight snapshot deliveries; once it returns, no
// further change callbacks fire.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.accounts.Stop()
		s.categories.Stop()
		s.transactions.Stop()
	})
}

// WithStore opens a Store for userID, runs fn, and guarantees disposal on
// every exit path, including panics.
func WithStore(ctx context.Context, ds docstore.Store, userID string, fn func(*Store) error) error {
	store, err := NewStore(ctx, ds, userID)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
