package ledger_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore/memory"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/models"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/testutil"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/uuid"
)

const testUser = "test-user"

func TestRecordAdjustsBalance(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "100")

	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	err := engine.Record(ctx, ledger.RecordInput{
		AccountID: accountID,
		Amount:    testutil.Dec(t, "20"),
		Kind:      models.KindDebit,
	})
	testutil.AssertNoError(t, err)
	if got := testutil.ReadBalance(t, store, testUser, accountID); !got.Equal(testutil.Dec(t, "80")) {
		t.Errorf("expected balance 80 after debit, got %s", got)
	}

	err = engine.Record(ctx, ledger.RecordInput{
		AccountID: accountID,
		Amount:    testutil.Dec(t, "500"),
		Kind:      models.KindCredit,
	})
	testutil.AssertNoError(t, err)
	if got := testutil.ReadBalance(t, store, testUser, accountID); !got.Equal(testutil.Dec(t, "580")) {
		t.Errorf("expected balance 580 after credit, got %s", got)
	}

	snap, err := store.List(ctx, docstore.TransactionsCollection(testUser))
	testutil.AssertNoError(t, err)
	if len(snap) != 2 {
		t.Errorf("expected 2 recorded transactions, got %d", len(snap))
	}
}

func TestRecordSequentialInvariant(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "250")

	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	inputs := []ledger.RecordInput{
		{AccountID: accountID, Amount: testutil.Dec(t, "10.50"), Kind: models.KindCredit},
		{AccountID: accountID, Amount: testutil.Dec(t, "99.99"), Kind: models.KindDebit},
		{AccountID: accountID, Amount: testutil.Dec(t, "0.01"), Kind: models.KindCredit},
		{AccountID: accountID, Amount: testutil.Dec(t, "42"), Kind: models.KindDebit},
	}
	expected := testutil.Dec(t, "250")
	for _, in := range inputs {
		testutil.AssertNoError(t, engine.Record(ctx, in))
		signed := in.Amount
		if in.Kind == models.KindDebit {
			signed = signed.Neg()
		}
		expected = expected.Add(signed)
	}

	if got := testutil.ReadBalance(t, store, testUser, accountID); !got.Equal(expected) {
		t.Errorf("expected balance %s, got %s", expected, got)
	}
}

func TestRecordValidation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "100")
	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	cases := []struct {
		name string
		in   ledger.RecordInput
		code string
	}{
		{"zero amount", ledger.RecordInput{AccountID: accountID, Amount: testutil.Dec(t, "0"), Kind: models.KindCredit}, "INVALID_INPUT"},
		{"negative amount", ledger.RecordInput{AccountID: accountID, Amount: testutil.Dec(t, "-5"), Kind: models.KindCredit}, "INVALID_INPUT"},
		{"unknown kind", ledger.RecordInput{AccountID: accountID, Amount: testutil.Dec(t, "5"), Kind: "transfer"}, "INVALID_INPUT"},
		{"missing account id", ledger.RecordInput{Amount: testutil.Dec(t, "5"), Kind: models.KindCredit}, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertAppError(t, engine.Record(ctx, tc.in), tc.code)
		})
	}

	// Nothing may be appended by a rejected record.
	snap, err := store.List(ctx, docstore.TransactionsCollection(testUser))
	testutil.AssertNoError(t, err)
	if len(snap) != 0 {
		t.Errorf("expected no transactions after rejected records, got %d", len(snap))
	}
}

func TestRecordRequiresUser(t *testing.T) {
	store := memory.NewStore()
	engine := ledger.NewBalanceEngine(store, func() (string, bool) { return "", false })

	err := engine.Record(context.Background(), ledger.RecordInput{
		AccountID: "a1",
		Amount:    testutil.Dec(t, "5"),
		Kind:      models.KindCredit,
	})
	testutil.AssertAppError(t, err, "AUTH_REQUIRED")
}

func TestRecordGhostAccount(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	err := engine.Record(ctx, ledger.RecordInput{
		AccountID: "never-existed",
		Amount:    testutil.Dec(t, "5"),
		Kind:      models.KindCredit,
	})
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")

	// The pre-append check fired, so no orphan was created.
	snap, err := store.List(ctx, docstore.TransactionsCollection(testUser))
	testutil.AssertNoError(t, err)
	if len(snap) != 0 {
		t.Errorf("expected no transactions for a ghost account, got %d", len(snap))
	}
}

// vanishingStore deletes a target document right after the first append,
// simulating an account removed between the transaction append and the
// balance adjustment.
type vanishingStore struct {
	docstore.Store
	target string
	once   sync.Once
}

func (s *vanishingStore) Append(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id, err := s.Store.Append(ctx, collection, fields)
	if err != nil {
		return id, err
	}
	s.once.Do(func() { _ = s.Store.Delete(ctx, s.target) })
	return id, nil
}

func TestRecordAccountRemovedMidFlight(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, inner, testUser, "Checking", "100")
	accountPath := docstore.DocumentPath(docstore.AccountsCollection(testUser), accountID)

	store := &vanishingStore{Store: inner, target: accountPath}
	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	err := engine.Record(ctx, ledger.RecordInput{
		AccountID: accountID,
		Amount:    testutil.Dec(t, "5"),
		Kind:      models.KindCredit,
	})
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	if !strings.Contains(err.Error(), "account removed while recording transaction") {
		t.Errorf("expected the error to name the orphaned transaction, got %q", err.Error())
	}

	// The appended transaction is the durable record of intent and stays put.
	snap, listErr := inner.List(ctx, docstore.TransactionsCollection(testUser))
	testutil.AssertNoError(t, listErr)
	if len(snap) != 1 {
		t.Errorf("expected the orphaned transaction to remain, got %d documents", len(snap))
	}
}

func TestRecordIdempotentRequestID(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "100")
	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	in := ledger.RecordInput{
		AccountID: accountID,
		Amount:    testutil.Dec(t, "25"),
		Kind:      models.KindDebit,
		RequestID: uuid.New(),
	}
	testutil.AssertNoError(t, engine.Record(ctx, in))
	testutil.AssertNoError(t, engine.Record(ctx, in)) // retried submit

	snap, err := store.List(ctx, docstore.TransactionsCollection(testUser))
	testutil.AssertNoError(t, err)
	if len(snap) != 1 {
		t.Errorf("expected a single transaction for a retried request id, got %d", len(snap))
	}
	if got := testutil.ReadBalance(t, store, testUser, accountID); !got.Equal(testutil.Dec(t, "75")) {
		t.Errorf("expected the balance adjusted exactly once, got %s", got)
	}
}

func TestConcurrentRecordsConverge(t *testing.T) {
	store := memory.NewStore()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "100")
	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	amounts := []string{"10", "20", "30", "40"}
	var wg sync.WaitGroup
	errs := make([]error, len(amounts))
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount string) {
			defer wg.Done()
			errs[i] = engine.Record(context.Background(), ledger.RecordInput{
				AccountID: accountID,
				Amount:    testutil.Dec(t, amount),
				Kind:      models.KindCredit,
				RequestID: uuid.New(),
			})
		}(i, amount)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("record %d failed: %v", i, err)
		}
	}
	if got := testutil.ReadBalance(t, store, testUser, accountID); !got.Equal(testutil.Dec(t, "200")) {
		t.Errorf("expected every concurrent credit applied (balance 200), got %s", got)
	}
}

func TestUnconditionalWritesLoseUpdatesAndReconcileRepairs(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "100")
	accountPath := docstore.DocumentPath(docstore.AccountsCollection(testUser), accountID)

	// Both transactions land in the log.
	credit := models.Transaction{AccountID: accountID, Amount: testutil.Dec(t, "50"), Kind: models.KindCredit, RequestID: uuid.New()}
	debit := models.Transaction{AccountID: accountID, Amount: testutil.Dec(t, "20"), Kind: models.KindDebit, RequestID: uuid.New()}
	_, err := store.Append(ctx, docstore.TransactionsCollection(testUser), credit.Fields())
	testutil.AssertNoError(t, err)
	_, err = store.Append(ctx, docstore.TransactionsCollection(testUser), debit.Fields())
	testutil.AssertNoError(t, err)

	// Two writers compute from the same stale read and write unconditionally.
	// The second write silently overwrites the first: the +50 is lost.
	stale := testutil.Dec(t, "100")
	testutil.AssertNoError(t, store.Update(ctx, accountPath,
		map[string]any{models.FieldBalance: stale.Add(testutil.Dec(t, "50")).String()}))
	testutil.AssertNoError(t, store.Update(ctx, accountPath,
		map[string]any{models.FieldBalance: stale.Sub(testutil.Dec(t, "20")).String()}))

	if got := testutil.ReadBalance(t, store, testUser, accountID); !got.Equal(testutil.Dec(t, "80")) {
		t.Fatalf("expected the lost update to leave balance 80, got %s", got)
	}

	// Reconcile recomputes from the initial balance and the full log.
	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))
	balance, err := engine.Reconcile(ctx, accountID)
	testutil.AssertNoError(t, err)
	if !balance.Equal(testutil.Dec(t, "130")) {
		t.Errorf("expected reconciled balance 130, got %s", balance)
	}
	if got := testutil.ReadBalance(t, store, testUser, accountID); !got.Equal(testutil.Dec(t, "130")) {
		t.Errorf("expected the reconciled balance written back, got %s", got)
	}
}

func TestReconcileIgnoresOtherAccounts(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := testutil.SeedAccount(t, store, testUser, "Checking", "100")
	otherID := testutil.SeedAccount(t, store, testUser, "Savings", "0")
	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	testutil.AssertNoError(t, engine.Record(ctx, ledger.RecordInput{
		AccountID: accountID, Amount: testutil.Dec(t, "10"), Kind: models.KindCredit}))
	testutil.AssertNoError(t, engine.Record(ctx, ledger.RecordInput{
		AccountID: otherID, Amount: testutil.Dec(t, "999"), Kind: models.KindCredit}))

	balance, err := engine.Reconcile(ctx, accountID)
	testutil.AssertNoError(t, err)
	if !balance.Equal(testutil.Dec(t, "110")) {
		t.Errorf("expected reconciled balance 110, got %s", balance)
	}
}

func TestReconcileMissingAccount(t *testing.T) {
	store := memory.NewStore()
	engine := ledger.NewBalanceEngine(store, ledger.StaticUser(testUser))

	_, err := engine.Reconcile(context.Background(), "missing")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}
