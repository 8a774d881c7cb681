package store

import (
	"context"
	"fmt"
	"time"

	"finboard/internal/core"
)

// Seed is a fixture of accounts, transactions and goals.
type Seed struct {
	Accounts     []core.Account     `json:"accounts"`
	Transactions []core.Transaction `json:"transactions"`
	Goals        []core.Goal        `json:"goals"`
}

// DefaultSeed is a small household ledger around now: a salary and a few
// expenses this month, an upcoming rent payment and one pending transfer.
func DefaultSeed(now time.Time) Seed {
	now = now.UTC()
	day := func(offset int) time.Time {
		d := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, time.UTC)
		return d.AddDate(0, 0, offset)
	}
	at := func(offset int) *time.Time {
		t := day(offset)
		return &t
	}
	cat := func(id int64) *int64 { return &id }

	accounts := []core.Account{
		{ID: 1, Kind: core.KindCapitalNormal, Name: "Checking", Balance: 250000, Currency: "EUR", Color: "#3b82f6"},
		{ID: 2, Kind: core.KindCapitalSavings, Name: "Savings", Balance: 1000000, Currency: "EUR", Color: "#10b981"},
		{ID: 3, Kind: core.KindDebtLoan, Name: "Mortgage", Balance: 4000000, Capital: -15000000, Currency: "EUR", Color: "#f59e0b"},
		{ID: 4, Kind: core.KindDebtPersonal, Name: "Loan from Sam", Balance: 20000, Capital: -50000, Currency: "EUR", Color: "#a855f7"},
		{ID: 5, Kind: core.KindDebtCredit, Name: "Visa", Balance: -45000, Capital: 300000, Currency: "EUR", Color: "#ef4444"},
		{ID: 6, Kind: core.KindExternalIncome, Name: "Salary", Currency: "EUR", Color: "#22c55e"},
		{
			ID: 7, Kind: core.KindExternalExpense, Name: "Groceries", Currency: "EUR", Color: "#eab308",
			Children: []core.Account{
				{ID: 8, Kind: core.KindExternalExpense, Name: "Supermarket", Currency: "EUR", Color: "#eab308"},
				{ID: 9, Kind: core.KindExternalExpense, Name: "Farmers market", Currency: "EUR", Color: "#eab308"},
			},
		},
		{ID: 10, Kind: core.KindExternalExpense, Name: "Rent", Currency: "EUR", Color: "#64748b"},
		{ID: 11, Kind: core.KindSystemHistoric, Name: "Opening balances", Currency: "EUR", Archived: true},
	}

	transactions := []core.Transaction{
		{ID: 20, Source: core.AccountRef{ID: 6}, Target: core.AccountRef{ID: 1}, SourceAmount: -320000, TargetAmount: 320000,
			Description: "Salary", CategoryID: cat(3), IssuedAt: day(-2), ExecutedAt: at(-2)},
		{ID: 21, Source: core.AccountRef{ID: 1}, Target: core.AccountRef{ID: 8}, SourceAmount: -5420, TargetAmount: 5420,
			Description: "Weekly shop", CategoryID: cat(1), IssuedAt: day(-1), ExecutedAt: at(-1)},
		{ID: 22, Source: core.AccountRef{ID: 5}, Target: core.AccountRef{ID: 9}, SourceAmount: -1850, TargetAmount: 1850,
			Description: "Vegetables", CategoryID: cat(1), IssuedAt: day(-1), ExecutedAt: at(-1)},
		{ID: 23, Source: core.AccountRef{ID: 1}, Target: core.AccountRef{ID: 3}, SourceAmount: -120000, TargetAmount: 120000,
			Description: "Mortgage instalment", CategoryID: cat(2), IssuedAt: day(0), ExecutedAt: at(0)},
		{ID: 24, Source: core.AccountRef{ID: 1}, Target: core.AccountRef{ID: 10}, SourceAmount: -95000, TargetAmount: 95000,
			Description: "Rent", CategoryID: cat(2), IssuedAt: day(0), ExecutedAt: at(5)},
		{ID: 25, Source: core.AccountRef{ID: 1}, Target: core.AccountRef{ID: 2}, SourceAmount: -50000, TargetAmount: 50000,
			Description: "Monthly saving", IssuedAt: day(-3)},
	}
	for i := range transactions {
		transactions[i].CreatedAt = transactions[i].IssuedAt
		transactions[i].UpdatedAt = transactions[i].IssuedAt
	}

	achieved := day(-30)
	archived := day(-10)
	goals := []core.Goal{
		{ID: 30, Name: "Emergency fund", Target: 1000000, Saved: 450000, Currency: "EUR", Position: 1},
		{ID: 31, Name: "Summer holiday", Target: 300000, Saved: 300000, Currency: "EUR", Position: 2, AchievedAt: &achieved},
		{ID: 32, Name: "New bike", Target: 150000, Saved: 20000, Currency: "EUR", Position: 3, ArchivedAt: &archived},
	}

	return Seed{Accounts: accounts, Transactions: transactions, Goals: goals}
}

// Import writes seed into ledger through its ports. Ids are reassigned by
// the ledger; transactions are remapped to the new account ids.
func Import(ctx context.Context, ledger Ledger, seed Seed) error {
	ids := make(map[int64]int64)
	create := func(a core.Account) error {
		old := a.ID
		if a.ParentID != nil {
			parent, ok := ids[*a.ParentID]
			if !ok {
				return fmt.Errorf("seed account %q: parent %d: %w", a.Name, *a.ParentID, core.ErrNotFound)
			}
			a.ParentID = &parent
		}
		a.Children = nil
		created, err := ledger.CreateAccount(ctx, a)
		if err != nil {
			return fmt.Errorf("seed account %q: %w", a.Name, err)
		}
		ids[old] = created.ID
		return nil
	}

	for _, a := range seed.Accounts {
		if err := create(a); err != nil {
			return err
		}
		for _, c := range a.Children {
			c.ParentID = &a.ID
			if err := create(c); err != nil {
				return err
			}
		}
	}
	for _, tx := range seed.Transactions {
		src, okSrc := ids[tx.Source.ID]
		dst, okDst := ids[tx.Target.ID]
		if !okSrc || !okDst {
			return fmt.Errorf("seed transaction %d: %w", tx.ID, core.ErrNotFound)
		}
		tx.Source = core.AccountRef{ID: src}
		tx.Target = core.AccountRef{ID: dst}
		if _, err := ledger.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("seed transaction %d: %w", tx.ID, err)
		}
	}
	for _, g := range seed.Goals {
		if _, err := ledger.CreateGoal(ctx, g); err != nil {
			return fmt.Errorf("seed goal %q: %w", g.Name, err)
		}
	}
	return nil
}
