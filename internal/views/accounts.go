// Package views derives display models from raw API lists: account
// buckets and debt progress, date-grouped transactions, goal progress.
// Everything here is synchronous and free of I/O.
package views

import (
	"math"
	"slices"

	"finboard/internal/core"
)

// Buckets partitions accounts by kind for display. Capital holds normal and
// savings accounts; Savings repeats the savings ones for views that need
// them on their own.
type Buckets struct {
	Capital  []core.Account
	Savings  []core.Account
	Loans    []core.Account
	Credits  []core.Account
	Income   []core.Account
	Expenses []core.Account
}

// Partition filters accounts into buckets, keeping input order. Kinds that
// belong to no bucket are dropped.
func Partition(accounts []core.Account) Buckets {
	var b Buckets
	for _, a := range accounts {
		switch a.Kind {
		case core.KindCapitalNormal:
			b.Capital = append(b.Capital, a)
		case core.KindCapitalSavings:
			b.Capital = append(b.Capital, a)
			b.Savings = append(b.Savings, a)
		case core.KindDebtLoan, core.KindDebtPersonal:
			b.Loans = append(b.Loans, a)
		case core.KindDebtCredit:
			b.Credits = append(b.Credits, a)
		case core.KindExternalIncome:
			b.Income = append(b.Income, a)
		case core.KindExternalExpense:
			b.Expenses = append(b.Expenses, a)
		}
	}
	return b
}

// SortByKind returns a copy ordered by kind presentation order; accounts of
// the same kind keep their relative order.
func SortByKind(accounts []core.Account) []core.Account {
	out := slices.Clone(accounts)
	slices.SortStableFunc(out, func(a, b core.Account) int {
		return a.Kind.Rank() - b.Kind.Rank()
	})
	return out
}

// Remaining is what is left to settle on a debt account.
func Remaining(a core.Account) int64 {
	return a.Capital + a.Balance
}

// Progress of a debt toward its capital. Complete means render the
// finished state instead of a percentage.
type Progress struct {
	Ratio    float64
	Complete bool
}

// DebtProgress is |remaining / capital|. A zero capital has no meaningful
// ratio and is reported as complete.
func DebtProgress(a core.Account) Progress {
	if a.Capital == 0 {
		return Progress{Ratio: 1, Complete: true}
	}
	ratio := math.Abs(float64(Remaining(a)) / float64(a.Capital))
	return Progress{Ratio: ratio, Complete: ratio >= 1}
}

// Percent is the ratio as a whole percentage. It is truncated so that only
// a complete debt reaches 100.
func (p Progress) Percent() int {
	if p.Complete {
		return 100
	}
	return int(math.Min(p.Ratio, 1) * 100)
}

// AmountOwed flips capital so that positive always means "I owe":
// credit lines store it the other way round from loans.
func AmountOwed(a core.Account) int64 {
	if a.Kind == core.KindDebtCredit {
		return a.Capital
	}
	return -a.Capital
}

// Tone is the colour class of a signed amount.
type Tone int

const (
	Neutral Tone = iota
	Positive
	Negative
)

func ToneOf(amount int64) Tone {
	switch {
	case amount > 0:
		return Positive
	case amount < 0:
		return Negative
	default:
		return Neutral
	}
}

// FlattenSelectable lists every selectable account, parents before their
// children, for populating filter pickers.
func FlattenSelectable(accounts []core.AccountSelect) []core.AccountSelect {
	var out []core.AccountSelect
	for _, a := range accounts {
		parent := a
		parent.Children = nil
		out = append(out, parent)
		out = append(out, a.Children...)
	}
	return out
}
