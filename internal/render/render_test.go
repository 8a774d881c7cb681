package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
	"finboard/internal/views"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestRenderer() *Renderer {
	r := New()
	r.Now = func() time.Time { return fixedNow }
	return r
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[....................]", bar(0))
	assert.Equal(t, "[##########..........]", bar(50))
	assert.Equal(t, "[####################]", bar(100))
	assert.Equal(t, "[####################]", bar(140))
	assert.Equal(t, "[....................]", bar(-3))
}

func TestAccounts(t *testing.T) {
	accounts := []core.Account{
		{ID: 1, Kind: core.KindCapitalNormal, Name: "Checking", Balance: 123450, Currency: "EUR",
			Children: []core.Account{{ID: 4, Kind: core.KindCapitalNormal, Name: "Pocket", Balance: 2000, Currency: "EUR"}}},
		{ID: 2, Kind: core.KindDebtLoan, Name: "Mortgage", Capital: -100000, Balance: 25000, Currency: "EUR"},
		{ID: 3, Kind: core.KindDebtCredit, Name: "Card", Capital: 0, Balance: -300, Currency: "EUR"},
	}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Accounts(&buf, accounts))
	out := buf.String()

	assert.Contains(t, out, "Capital")
	assert.Contains(t, out, "Loans")
	assert.Contains(t, out, "Credit Lines")
	assert.NotContains(t, out, "Income")
	assert.Contains(t, out, "Checking")
	assert.Contains(t, out, "Pocket")
	assert.Contains(t, out, "1,234.50")
	assert.Contains(t, out, "Mortgage")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "settled", "zero capital debt renders as finished")
}

func TestAccountsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Accounts(&buf, nil))
	assert.Contains(t, buf.String(), "No accounts.")
}

func TestDayGroupsFocal(t *testing.T) {
	executed := fixedNow.Add(-time.Hour)
	checking := core.AccountRef{ID: 1, Name: "Checking", Currency: "EUR"}
	shop := core.AccountRef{ID: 9, Name: "Grocer", Currency: "EUR"}
	salary := core.AccountRef{ID: 7, Name: "Employer", Currency: "EUR"}

	groups := []views.DayGroup{{
		Day:  "2024-03-15",
		Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Transactions: []core.Transaction{
			{ID: 10, Source: checking, Target: shop, SourceAmount: -4500, TargetAmount: 4500,
				Description: "Food", IssuedAt: executed, ExecutedAt: &executed},
			{ID: 11, Source: salary, Target: checking, SourceAmount: -200000, TargetAmount: 200000,
				Description: "Pay", IssuedAt: executed},
		},
	}}

	focal := int64(1)
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().DayGroups(&buf, groups, &focal))
	out := buf.String()

	assert.Contains(t, out, "Fri 15 Mar 2024")
	assert.Contains(t, out, "#10 Food")
	assert.Contains(t, out, "Grocer")
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "45.00")
	assert.Contains(t, out, "Employer")
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "(pending)")
}

func TestDayGroupsWithoutFocal(t *testing.T) {
	future := fixedNow.Add(48 * time.Hour)
	groups := []views.DayGroup{{
		Day:  "2024-03-17",
		Date: time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		Transactions: []core.Transaction{{
			ID: 3, Description: "Rent",
			Source:       core.AccountRef{ID: 1, Name: "Checking", Currency: "EUR"},
			Target:       core.AccountRef{ID: 2, Name: "Landlord", Currency: "EUR"},
			SourceAmount: -90000, TargetAmount: 90000,
			IssuedAt: fixedNow, ExecutedAt: &future,
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().DayGroups(&buf, groups, nil))
	out := buf.String()
	assert.Contains(t, out, "Checking")
	assert.Contains(t, out, "Landlord")
	assert.Contains(t, out, "900.00")
	assert.Contains(t, out, "(upcoming)")

	buf.Reset()
	require.NoError(t, newTestRenderer().DayGroups(&buf, nil, nil))
	assert.Contains(t, buf.String(), "No transactions.")
}

func TestGoals(t *testing.T) {
	archived := fixedNow
	goals := []core.Goal{
		{ID: 2, Name: "Bike", Target: 100000, Saved: 100000, Currency: "EUR", Position: 2},
		{ID: 1, Name: "Holiday", Target: 200000, Saved: 50000, Currency: "EUR", Position: 1},
		{ID: 3, Name: "Old", Target: 100, Saved: 0, Currency: "EUR", ArchivedAt: &archived},
	}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Goals(&buf, goals))
	out := buf.String()

	assert.Contains(t, out, "Holiday")
	assert.Contains(t, out, " 25%")
	assert.Contains(t, out, "reached")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Holiday")), bytes.Index(buf.Bytes(), []byte("Bike")))
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Bike")), bytes.Index(buf.Bytes(), []byte("Old")))
}

func TestGoalsArchivedIgnoresProgress(t *testing.T) {
	archived := fixedNow
	goals := []core.Goal{
		{ID: 1, Name: "Bike", Target: 100000, Saved: 20000, Currency: "EUR", Position: 1},
		{ID: 2, Name: "Holiday", Target: 100000, Saved: 100000, Currency: "EUR", Position: 0, ArchivedAt: &archived},
	}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Goals(&buf, goals))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[1], "Bike")
	assert.Contains(t, lines[1], " 20%")
	assert.Contains(t, lines[2], "Holiday")
	assert.Contains(t, lines[2], "archived")
	assert.NotContains(t, lines[2], "reached")
	assert.NotContains(t, lines[2], "%")
	assert.NotContains(t, lines[2], "#")
}

func TestGoalsOnlyArchived(t *testing.T) {
	archived := fixedNow
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Goals(&buf, []core.Goal{
		{ID: 1, Name: "Old", Target: 100, Currency: "EUR", ArchivedAt: &archived},
	}))
	assert.Contains(t, buf.String(), "archived")
	assert.NotContains(t, buf.String(), "No goals.")
}
