package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/store"
)

var seedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *Store {
	t.Helper()
	s, err := NewSeeded(store.DefaultSeed(seedNow))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestListAccountsFiltersKindAndArchived(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	debts, err := s.ListAccounts(ctx, store.AccountFilter{Kinds: []core.AccountKind{core.KindDebtLoan, core.KindDebtCredit}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(debts) != 2 || debts[0].Name != "Mortgage" || debts[1].Name != "Visa" {
		t.Fatalf("unexpected debts: %+v", debts)
	}

	all, _ := s.ListAccounts(ctx, store.AccountFilter{})
	withArchived, _ := s.ListAccounts(ctx, store.AccountFilter{Archived: true})
	if len(withArchived) != len(all)+1 {
		t.Fatalf("archived account should only appear on request: %d vs %d", len(withArchived), len(all))
	}
}

func TestBalanceFollowsExecutedTransactions(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	a, err := s.GetAccount(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// opening 250000 + salary 320000 - shop 5420 - mortgage 120000 - rent 95000; pending saving excluded
	if want := int64(250000 + 320000 - 5420 - 120000 - 95000); a.Balance != want {
		t.Fatalf("balance = %d, want %d", a.Balance, want)
	}
}

func TestListTransactionsPendingSplit(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	executed, _ := s.ListTransactions(ctx, store.TransactionFilter{State: store.ExecutedOnly})
	pending, _ := s.ListTransactions(ctx, store.TransactionFilter{State: store.PendingOnly})
	if len(executed) != 5 || len(pending) != 1 {
		t.Fatalf("executed=%d pending=%d", len(executed), len(pending))
	}
	if pending[0].ID != 25 {
		t.Fatalf("unexpected pending: %+v", pending[0])
	}
}

func TestListTransactionsParentAccountMatch(t *testing.T) {
	s := seeded(t)
	txs, err := s.ListTransactions(context.Background(), store.TransactionFilter{Accounts: []int64{7}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("groceries parent should match both children, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.Target.Parent == nil || tx.Target.Parent.ID != 7 {
			t.Fatalf("target parent not hydrated: %+v", tx.Target)
		}
	}
}

func TestTransactionCRUD(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	s.now = func() time.Time { return seedNow }

	created, err := s.CreateTransaction(ctx, core.Transaction{
		Source:       core.AccountRef{ID: 1},
		Target:       core.AccountRef{ID: 10},
		SourceAmount: -1000,
		TargetAmount: 1000,
		IssuedAt:     seedNow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID <= 32 || created.Source.Name != "Checking" || !created.CreatedAt.Equal(seedNow) {
		t.Fatalf("unexpected created: %+v", created)
	}

	created.Description = "Deposit"
	updated, err := s.UpdateTransaction(ctx, created)
	if err != nil || updated.Description != "Deposit" {
		t.Fatalf("update: %+v %v", updated, err)
	}

	if err := s.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateTransactionUnknownAccount(t *testing.T) {
	s := seeded(t)
	_, err := s.CreateTransaction(context.Background(), core.Transaction{
		Source: core.AccountRef{ID: 1}, Target: core.AccountRef{ID: 999},
		SourceAmount: -1, TargetAmount: 1, IssuedAt: seedNow,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteAccountInUse(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	if err := s.DeleteAccount(ctx, 1); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected in use, got %v", err)
	}

	a, err := s.CreateAccount(ctx, core.Account{Kind: core.KindCapitalNormal, Name: "Spare", Currency: "EUR"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestCreateAccountRejectsGrandchild(t *testing.T) {
	s := seeded(t)
	parent := int64(8)
	_, err := s.CreateAccount(context.Background(), core.Account{
		Kind: core.KindExternalExpense, Name: "Too deep", Currency: "EUR", ParentID: &parent,
	})
	if !errors.Is(err, core.ErrNestedChildren) {
		t.Fatalf("expected nested children error, got %v", err)
	}
}

func TestUpdateAccountRejectsParentWithChildren(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	groceries, err := s.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rent := int64(10)
	groceries.ParentID = &rent
	if _, err := s.UpdateAccount(ctx, groceries); !errors.Is(err, core.ErrNestedChildren) {
		t.Fatalf("expected nested children error, got %v", err)
	}

	leaf, err := s.GetAccount(ctx, 6)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	leaf.ParentID = &rent
	if _, err := s.UpdateAccount(ctx, leaf); err != nil {
		t.Fatalf("childless account should accept a parent: %v", err)
	}
}

func TestGoalsSortedByPosition(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	if _, err := s.CreateGoal(ctx, core.Goal{Name: "First", Target: 100, Currency: "EUR", Position: -1}); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	goals, _ := s.ListGoals(ctx)
	if len(goals) != 4 || goals[0].Name != "First" {
		t.Fatalf("unexpected goals: %+v", goals)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> default seed
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}
	if all, _ := s.ListAccounts(context.Background(), store.AccountFilter{Archived: true}); len(all) == 0 {
		t.Fatal("expected default accounts")
	}

	path := filepath.Join(dir, "seed.json")
	content := `{"accounts":[{"id":1,"kind":"capital-normal","name":"Only","currency":"EUR"}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	all, _ := s.ListAccounts(context.Background(), store.AccountFilter{})
	if len(all) != 1 || all[0].Name != "Only" {
		t.Fatalf("unexpected accounts: %+v", all)
	}

	if err := os.WriteFile(path, []byte(`{"accounts":[{"id":1,"kind":"bogus","name":"x","currency":"EUR"}]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFromFile(path); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected invalid kind, got %v", err)
	}
}
