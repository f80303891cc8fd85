package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	apperrors "github.com/Facundo-Gordillo/MYFINANCES/internal/errors"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/models"
)

// Catalog handles the account and category write paths other than balance
// adjustment: creation, renames and deletion. All writes go through the
// document store so live subscribers observe them like any remote change.
//
// Direct balance edits are deliberately absent: the balance field is owned by
// the BalanceEngine, and an out-of-band edit would silently diverge from the
// transaction log. Use BalanceEngine.Reconcile to repair a balance.
type Catalog struct {
	store docstore.Store
	users UserFunc
}

// NewCatalog creates a Catalog resolving the acting user through users.
func NewCatalog(store docstore.Store, users UserFunc) *Catalog {
	return &Catalog{store: store, users: users}
}

// CreateAccount creates an account with the given starting balance and
// returns its id. The starting balance is also recorded as the account's
// initial balance, the base value reconciliation sums transactions onto.
func (c *Catalog) CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal) (string, error) {
	userID, ok := c.users()
	if !ok {
		return "", apperrors.ErrAuthRequired
	}
	if name == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	account := models.Account{
		Name:           name,
		Balance:        initialBalance,
		InitialBalance: initialBalance,
	}
	id, err := c.store.Append(ctx, docstore.AccountsCollection(userID), account.Fields())
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}
	return id, nil
}

// RenameAccount changes an account's display name.
func (c *Catalog) RenameAccount(ctx context.Context, accountID, name string) error {
	userID, ok := c.users()
	if !ok {
		return apperrors.ErrAuthRequired
	}
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	path := docstore.DocumentPath(docstore.AccountsCollection(userID), accountID)
	err := c.store.Update(ctx, path, map[string]any{models.FieldName: name})
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.ErrAccountNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}
	return nil
}

// DeleteAccount removes an account. Transactions referencing it remain in
// the ledger and surface with the unknown-account sentinel.
func (c *Catalog) DeleteAccount(ctx context.Context, accountID string) error {
	userID, ok := c.users()
	if !ok {
		return apperrors.ErrAuthRequired
	}

	path := docstore.DocumentPath(docstore.AccountsCollection(userID), accountID)
	if err := c.store.Delete(ctx, path); err != nil {
		return apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}
	return nil
}

// CreateCategory creates a category and returns its id. An empty color falls
// back to the default.
func (c *Catalog) CreateCategory(ctx context.Context, name, color string) (string, error) {
	userID, ok := c.users()
	if !ok {
		return "", apperrors.ErrAuthRequired
	}
	if name == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category := models.Category{Name: name, Color: color}
	id, err := c.store.Append(ctx, docstore.CategoriesCollection(userID), category.Fields())
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}
	return id, nil
}

// UpdateCategory changes a category's name and color.
func (c *Catalog) UpdateCategory(ctx context.Context, categoryID, name, color string) error {
	userID, ok := c.users()
	if !ok {
		return apperrors.ErrAuthRequired
	}
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if color == "" {
		color = models.DefaultCategoryColor
	}

	path := docstore.DocumentPath(docstore.CategoriesCollection(userID), categoryID)
	err := c.store.Update(ctx, path, map[string]any{
		models.FieldName:  name,
		models.FieldColor: color,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.ErrCategoryNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}
	return nil
}

// DeleteCategory removes a category. Transactions referencing it remain and
// project into the uncategorized bucket from then on.
func (c *Catalog) DeleteCategory(ctx context.Context, categoryID string) error {
	userID, ok := c.users()
	if !ok {
		return apperrors.ErrAuthRequired
	}

	path := docstore.DocumentPath(docstore.CategoriesCollection(userID), categoryID)
	if err := c.store.Delete(ctx, path); err != nil {
		return apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}
	return nil
}
