package views

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"finboard/internal/core"
)

func TestPartition(t *testing.T) {
	accounts := []core.Account{
		{ID: 1, Kind: core.KindCapitalNormal},
		{ID: 2, Kind: core.KindDebtCredit},
		{ID: 3, Kind: core.KindCapitalSavings},
		{ID: 4, Kind: core.KindDebtPersonal},
		{ID: 5, Kind: core.KindExternalIncome},
		{ID: 6, Kind: core.KindSystemHistoric},
		{ID: 7, Kind: core.KindDebtLoan},
		{ID: 8, Kind: core.KindExternalExpense},
		{ID: 9, Kind: "unknown"},
	}

	b := Partition(accounts)

	assert.Equal(t, []int64{1, 3}, ids(b.Capital))
	assert.Equal(t, []int64{3}, ids(b.Savings))
	assert.Equal(t, []int64{4, 7}, ids(b.Loans))
	assert.Equal(t, []int64{2}, ids(b.Credits))
	assert.Equal(t, []int64{5}, ids(b.Income))
	assert.Equal(t, []int64{8}, ids(b.Expenses))
}

func TestSortByKindIsStable(t *testing.T) {
	accounts := []core.Account{
		{ID: 1, Kind: core.KindExternalExpense},
		{ID: 2, Kind: core.KindCapitalNormal},
		{ID: 3, Kind: core.KindDebtLoan},
		{ID: 4, Kind: core.KindCapitalNormal},
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, ids(SortByKind(accounts)))
	assert.Equal(t, int64(1), accounts[0].ID, "input must not be reordered")
}

func TestDebtProgress(t *testing.T) {
	tests := []struct {
		name     string
		capital  int64
		balance  int64
		ratio    float64
		complete bool
	}{
		{"nothing repaid remaining zero", 10000, -10000, 0, false},
		{"half way", 10000, -5000, 0.5, false},
		{"zero capital is complete", 0, -300, 1, true},
		{"overpaid clamps to complete", 10000, 5000, 1.5, true},
		{"exactly settled", 10000, 0, 1, true},
		{"negative capital", -10000, 2500, 0.75, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DebtProgress(core.Account{Kind: core.KindDebtCredit, Capital: tt.capital, Balance: tt.balance})
			assert.False(t, math.IsNaN(p.Ratio) || math.IsInf(p.Ratio, 0))
			assert.InDelta(t, tt.ratio, p.Ratio, 1e-9)
			assert.Equal(t, tt.complete, p.Complete)
		})
	}
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 50, Progress{Ratio: 0.5}.Percent())
	assert.Equal(t, 100, Progress{Ratio: 1.7, Complete: true}.Percent())
	assert.Equal(t, 0, Progress{}.Percent())
	assert.Equal(t, 99, Progress{Ratio: 0.996}.Percent())
}

func TestDebtProgressNearlySettledIsNotFull(t *testing.T) {
	loan := core.Account{Kind: core.KindDebtLoan, Capital: -100000, Balance: 400}
	p := DebtProgress(loan)
	assert.False(t, p.Complete)
	assert.Less(t, p.Percent(), 100)
}

func TestRemainingAndAmountOwed(t *testing.T) {
	credit := core.Account{Kind: core.KindDebtCredit, Capital: 5000, Balance: -1200}
	loan := core.Account{Kind: core.KindDebtLoan, Capital: -20000, Balance: 8000}

	assert.Equal(t, int64(3800), Remaining(credit))
	assert.Equal(t, int64(-12000), Remaining(loan))
	assert.Equal(t, int64(5000), AmountOwed(credit))
	assert.Equal(t, int64(20000), AmountOwed(loan))
	assert.Equal(t, Positive, ToneOf(AmountOwed(loan)))
	assert.Equal(t, Negative, ToneOf(-1))
	assert.Equal(t, Neutral, ToneOf(0))
}

func TestFlattenSelectable(t *testing.T) {
	in := []core.AccountSelect{
		{ID: 1, Children: []core.AccountSelect{{ID: 2}, {ID: 3}}},
		{ID: 4},
	}
	out := FlattenSelectable(in)
	got := make([]int64, len(out))
	for i, a := range out {
		got[i] = a.ID
		assert.Empty(t, a.Children)
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, got)
	assert.Len(t, in[0].Children, 2)
}

func ids(accounts []core.Account) []int64 {
	out := make([]int64, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.ID)
	}
	return out
}
