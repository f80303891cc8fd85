package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore/memory"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/models"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	catalog := ledger.NewCatalog(store, ledger.StaticUser(testUser))

	id, err := catalog.CreateAccount(ctx, "Checking", testutil.Dec(t, "250"))
	testutil.AssertNoError(t, err)

	doc, err := store.Read(ctx, docstore.DocumentPath(docstore.AccountsCollection(testUser), id))
	testutil.AssertNoError(t, err)
	account, err := models.DecodeAccount(doc)
	testutil.AssertNoError(t, err)

	if account.Name != "Checking" {
		t.Errorf("expected name Checking, got %s", account.Name)
	}
	if !account.Balance.Equal(testutil.Dec(t, "250")) || !account.InitialBalance.Equal(testutil.Dec(t, "250")) {
		t.Errorf("expected balance and initial balance 250, got %s / %s", account.Balance, account.InitialBalance)
	}
}

func TestCreateAccountRequiresName(t *testing.T) {
	catalog := ledger.NewCatalog(memory.NewStore(), ledger.StaticUser(testUser))

	_, err := catalog.CreateAccount(context.Background(), "", testutil.Dec(t, "0"))
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestRenameAccount(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Old name", "100")
	catalog := ledger.NewCatalog(store, ledger.StaticUser(testUser))

	testutil.AssertNoError(t, catalog.RenameAccount(ctx, accountID, "New name"))

	doc, err := store.Read(ctx, docstore.DocumentPath(docstore.AccountsCollection(testUser), accountID))
	testutil.AssertNoError(t, err)
	if doc.Fields[models.FieldName] != "New name" {
		t.Errorf("expected renamed account, got %v", doc.Fields[models.FieldName])
	}
	// The balance is untouched by a rename.
	if got := testutil.ReadBalance(t, store, testUser, accountID); !got.Equal(testutil.Dec(t, "100")) {
		t.Errorf("rename changed the balance: %s", got)
	}
}

func TestRenameMissingAccount(t *testing.T) {
	catalog := ledger.NewCatalog(memory.NewStore(), ledger.StaticUser(testUser))

	err := catalog.RenameAccount(context.Background(), "missing", "New name")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestDeleteAccountLeavesTransactions(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "100")

	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))
	testutil.AssertNoError(t, engine.Record(ctx, ledger.RecordInput{
		AccountID: accountID,
		Amount:    testutil.Dec(t, "10"),
		Kind:      models.KindDebit,
	}))

	catalog := ledger.NewCatalog(store, ledger.StaticUser(testUser))
	testutil.AssertNoError(t, catalog.DeleteAccount(ctx, accountID))

	_, err := store.Read(ctx, docstore.DocumentPath(docstore.AccountsCollection(testUser), accountID))
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected the account gone, got %v", err)
	}

	snap, err := store.List(ctx, docstore.TransactionsCollection(testUser))
	testutil.AssertNoError(t, err)
	if len(snap) != 1 {
		t.Errorf("expected the transaction to outlive its account, got %d documents", len(snap))
	}
}

func TestCreateCategoryDefaultColor(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	catalog := ledger.NewCatalog(store, ledger.StaticUser(testUser))

	id, err := catalog.CreateCategory(ctx, "Food", "")
	testutil.AssertNoError(t, err)

	doc, err := store.Read(ctx, docstore.DocumentPath(docstore.CategoriesCollection(testUser), id))
	testutil.AssertNoError(t, err)
	if doc.Fields[models.FieldColor] != models.DefaultCategoryColor {
		t.Errorf("expected default color %s, got %v", models.DefaultCategoryColor, doc.Fields[models.FieldColor])
	}
}

func TestUpdateCategory(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	categoryID := testutil.SeedCategory(t, store, testUser, "Food", "#ff0000")
	catalog := ledger.NewCatalog(store, ledger.StaticUser(testUser))

	testutil.AssertNoError(t, catalog.UpdateCategory(ctx, categoryID, "Groceries", "#00ff00"))

	doc, err := store.Read(ctx, docstore.DocumentPath(docstore.CategoriesCollection(testUser), categoryID))
	testutil.AssertNoError(t, err)
	if doc.Fields[models.FieldName] != "Groceries" || doc.Fields[models.FieldColor] != "#00ff00" {
		t.Errorf("unexpected category fields: %v", doc.Fields)
	}
}

func TestUpdateMissingCategory(t *testing.T) {
	catalog := ledger.NewCatalog(memory.NewStore(), ledger.StaticUser(testUser))

	err := catalog.UpdateCategory(context.Background(), "missing", "Groceries", "#00ff00")
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}

func TestDeleteCategoryLeavesTransactionsUncategorized(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "100")
	categoryID := testutil.SeedCategory(t, store, testUser, "Food", "#ff0000")

	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))
	testutil.AssertNoError(t, engine.Record(ctx, ledger.RecordInput{
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     testutil.Dec(t, "10"),
		Kind:       models.KindDebit,
	}))

	catalog := ledger.NewCatalog(store, ledger.StaticUser(testUser))
	testutil.AssertNoError(t, catalog.DeleteCategory(ctx, categoryID))

	err := ledger.WithStore(ctx, store, testUser, func(s *ledger.Store) error {
		enriched := s.EnrichedTransactions()
		if len(enriched) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(enriched))
		}
		if enriched[0].CategoryLabel != ledger.UncategorizedLabel {
			t.Errorf("expected the uncategorized sentinel, got %q", enriched[0].CategoryLabel)
		}
		return nil
	})
	testutil.AssertNoError(t, err)
}

func TestCatalogRequiresUser(t *testing.T) {
	catalog := ledger.NewCatalog(memory.NewStore(), func() (string, bool) { return "", false })
	ctx := context.Background()

	_, err := catalog.CreateAccount(ctx, "Checking", testutil.Dec(t, "0"))
	testutil.AssertAppError(t, err, "AUTH_REQUIRED")

	_, err = catalog.CreateCategory(ctx, "Food", "")
	testutil.AssertAppError(t, err, "AUTH_REQUIRED")

	testutil.AssertAppError(t, catalog.RenameAccount(ctx, "a1", "x"), "AUTH_REQUIRED")
	testutil.AssertAppError(t, catalog.DeleteAccount(ctx, "a1"), "AUTH_REQUIRED")
	testutil.AssertAppError(t, catalog.UpdateCategory(ctx, "c1", "x", ""), "AUTH_REQUIRED")
	testutil.AssertAppError(t, catalog.DeleteCategory(ctx, "c1"), "AUTH_REQUIRED")
}
