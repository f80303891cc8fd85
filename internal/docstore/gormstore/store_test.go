package gormstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore/gormstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/testutil"
)

func openTestStore(t *testing.T) *gormstore.Store {
	t.Helper()

	store, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	path := "users/u1/accounts/a1"

	err := store.Write(ctx, path, map[string]any{"name": "Checking", "balance": "100"})
	testutil.AssertNoError(t, err)

	doc, err := store.Read(ctx, path)
	testutil.AssertNoError(t, err)
	if doc.ID != "a1" {
		t.Errorf("expected id a1, got %s", doc.ID)
	}
	if doc.Fields["name"] != "Checking" || doc.Fields["balance"] != "100" {
		t.Errorf("unexpected fields: %v", doc.Fields)
	}
}

func TestReadMissingDocument(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Read(context.Background(), "users/u1/accounts/missing")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendAndListOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	collection := docstore.TransactionsCollection("u1")

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := store.Append(ctx, collection, map[string]any{"amount": "1"})
		testutil.AssertNoError(t, err)
		ids = append(ids, id)
	}

	snap, err := store.List(ctx, collection)
	testutil.AssertNoError(t, err)
	if len(snap) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(snap))
	}
	for i, doc := range snap {
		if doc.ID != ids[i] {
			t.Errorf("expected document %d to be %s, got %s", i, ids[i], doc.ID)
		}
	}
}

func TestUpdateMergesAndRejectsMissing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	path := "users/u1/accounts/a1"

	testutil.AssertNoError(t, store.Write(ctx, path, map[string]any{"name": "Checking", "balance": "100"}))
	testutil.AssertNoError(t, store.Update(ctx, path, map[string]any{"balance": "80"}))

	doc, err := store.Read(ctx, path)
	testutil.AssertNoError(t, err)
	if doc.Fields["name"] != "Checking" || doc.Fields["balance"] != "80" {
		t.Errorf("unexpected fields after merge: %v", doc.Fields)
	}

	err = store.Update(ctx, "users/u1/accounts/missing", map[string]any{"balance": "1"})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	path := "users/u1/accounts/a1"

	testutil.AssertNoError(t, store.Write(ctx, path, map[string]any{"balance": "100"}))

	err := store.Apply(ctx, path, map[string]any{"balance": "120"},
		docstore.Precondition{Field: "balance", Equals: "100"})
	testutil.AssertNoError(t, err)

	err = store.Apply(ctx, path, map[string]any{"balance": "150"},
		docstore.Precondition{Field: "balance", Equals: "100"})
	if !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	doc, err := store.Read(ctx, path)
	testutil.AssertNoError(t, err)
	if doc.Fields["balance"] != "120" {
		t.Errorf("conflicting apply must not change the document, got %v", doc.Fields["balance"])
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	path := "users/u1/accounts/a1"

	testutil.AssertNoError(t, store.Write(ctx, path, map[string]any{"name": "Checking"}))
	testutil.AssertNoError(t, store.Delete(ctx, path))
	testutil.AssertNoError(t, store.Delete(ctx, path))

	_, err := store.Read(ctx, path)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	collection := docstore.AccountsCollection("u1")

	testutil.SeedAccount(t, store, "u1", "Checking", "100")

	var sizes []int
	cancel, err := store.Subscribe(ctx, collection, func(snap docstore.Snapshot, err error) {
		testutil.AssertNoError(t, err)
		sizes = append(sizes, len(snap))
	})
	testutil.AssertNoError(t, err)
	defer cancel()

	testutil.SeedAccount(t, store, "u1", "Savings", "0")

	if len(sizes) != 2 || sizes[0] != 1 || sizes[1] != 2 {
		t.Errorf("expected snapshot sizes [1 2], got %v", sizes)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := gormstore.OpenSQLite(path)
	testutil.AssertNoError(t, err)
	accountID := testutil.SeedAccount(t, store, "u1", "Checking", "100")
	testutil.AssertNoError(t, store.Close())

	reopened, err := gormstore.OpenSQLite(path)
	testutil.AssertNoError(t, err)
	defer reopened.Close()

	doc, err := reopened.Read(ctx, docstore.DocumentPath(docstore.AccountsCollection("u1"), accountID))
	testutil.AssertNoError(t, err)
	if doc.Fields["name"] != "Checking" {
		t.Errorf("expected account to survive reopen, got %v", doc.Fields)
	}
}
