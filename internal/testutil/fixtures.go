package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/models"
)

// Dec parses a decimal literal, failing the test on malformed input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// SeedAccount writes an account document for userID and returns its id. The
// balance doubles as the initial balance, matching account creation.
func SeedAccount(t *testing.T, ds docstore.Store, userID, name, balance string) string {
	t.Helper()

	account := models.Account{
		Name:           name,
		Balance:        Dec(t, balance),
		InitialBalance: Dec(t, balance),
	}
	id, err := ds.Append(context.Background(), docstore.AccountsCollection(userID), account.Fields())
	AssertNoError(t, err)
	return id
}

// SeedCategory writes a category document for userID and returns its id.
func SeedCategory(t *testing.T, ds docstore.Store, userID, name, color string) string {
	t.Helper()

	category := models.Category{Name: name, Color: color}
	id, err := ds.Append(context.Background(), docstore.CategoriesCollection(userID), category.Fields())
	AssertNoError(t, err)
	return id
}

// ReadBalance reads an account's current balance straight from the store.
func ReadBalance(t *testing.T, ds docstore.Store, userID, accountID string) decimal.Decimal {
	t.Helper()

	path := docstore.DocumentPath(docstore.AccountsCollection(userID), accountID)
	doc, err := ds.Read(context.Background(), path)
	AssertNoError(t, err)
	account, err := models.DecodeAccount(doc)
	AssertNoError(t, err)
	return account.Balance
}
