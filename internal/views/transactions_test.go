package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func atp(s string) *time.Time {
	t := at(s)
	return &t
}

func TestClassify(t *testing.T) {
	now := at("2024-05-10T12:00:00Z")

	assert.Equal(t, Pending, Classify(core.Transaction{}, now))
	assert.Equal(t, Upcoming, Classify(core.Transaction{ExecutedAt: atp("2024-05-10T12:00:01Z")}, now))
	assert.Equal(t, Historical, Classify(core.Transaction{ExecutedAt: atp("2024-05-10T12:00:00Z")}, now))
	assert.Equal(t, Historical, Classify(core.Transaction{ExecutedAt: atp("2023-01-01T00:00:00Z")}, now))
}

func TestClassifyFollowsTheClock(t *testing.T) {
	tx := core.Transaction{ExecutedAt: atp("2024-05-10T12:00:00Z")}

	assert.Equal(t, Upcoming, Classify(tx, at("2024-05-10T11:59:59Z")))
	assert.Equal(t, Historical, Classify(tx, at("2024-05-10T12:00:01Z")))
}

func TestSplit(t *testing.T) {
	now := at("2024-05-10T12:00:00Z")
	txs := []core.Transaction{
		{ID: 1},
		{ID: 2, ExecutedAt: atp("2024-06-01T00:00:00Z")},
		{ID: 3, ExecutedAt: atp("2024-05-01T00:00:00Z")},
		{ID: 4},
	}
	pending, upcoming, historical := Split(txs, now)

	assert.Equal(t, []int64{1, 4}, txIDs(pending))
	assert.Equal(t, []int64{2}, txIDs(upcoming))
	assert.Equal(t, []int64{3}, txIDs(historical))
}

func TestGroupPendingAscending(t *testing.T) {
	txs := []core.Transaction{
		{ID: 1, IssuedAt: at("2024-01-02T00:00:00Z")},
		{ID: 2, IssuedAt: at("2024-01-01T00:00:00Z")},
	}

	groups, err := GroupView(txs, ViewPending, time.UTC)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "2024-01-01", groups[0].Day)
	assert.Equal(t, []int64{2}, txIDs(groups[0].Transactions))
	assert.Equal(t, "2024-01-02", groups[1].Day)
	assert.Equal(t, []int64{1}, txIDs(groups[1].Transactions))
}

func TestGroupHistoryDescendingWithinDayByUpdatedAt(t *testing.T) {
	txs := []core.Transaction{
		{ID: 1, ExecutedAt: atp("2024-02-01T08:00:00Z"), UpdatedAt: at("2024-02-03T00:00:00Z")},
		{ID: 2, ExecutedAt: atp("2024-02-03T09:00:00Z"), UpdatedAt: at("2024-02-03T09:00:00Z")},
		{ID: 3, ExecutedAt: atp("2024-02-01T22:00:00Z"), UpdatedAt: at("2024-02-01T22:00:00Z")},
		{ID: 4, ExecutedAt: atp("2024-02-01T01:00:00Z"), UpdatedAt: at("2024-02-02T00:00:00Z")},
	}

	groups, err := GroupView(txs, ViewHistory, time.UTC)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "2024-02-03", groups[0].Day)
	assert.Equal(t, "2024-02-01", groups[1].Day)
	assert.Equal(t, []int64{3, 4, 1}, txIDs(groups[1].Transactions))
}

func TestGroupUpcomingAscending(t *testing.T) {
	txs := []core.Transaction{
		{ID: 1, ExecutedAt: atp("2024-07-03T10:00:00Z")},
		{ID: 2, ExecutedAt: atp("2024-07-01T10:00:00Z")},
		{ID: 3, ExecutedAt: atp("2024-07-02T10:00:00Z")},
	}
	groups, err := GroupView(txs, ViewUpcoming, time.UTC)
	require.NoError(t, err)

	days := make([]string, len(groups))
	for i, g := range groups {
		days[i] = g.Day
	}
	assert.Equal(t, []string{"2024-07-01", "2024-07-02", "2024-07-03"}, days)
}

func TestGroupByDayRespectsLocalMidnight(t *testing.T) {
	rome := time.FixedZone("CET", 3600)

	txs := []core.Transaction{
		// 23:30 UTC is already the next day in Rome (UTC+1 in winter)
		{ID: 1, IssuedAt: at("2024-01-01T23:30:00Z")},
		{ID: 2, IssuedAt: at("2024-01-01T10:00:00Z")},
		{ID: 3, IssuedAt: at("2024-01-01T18:00:00Z")},
	}

	utcGroups := GroupByDay(txs, IssuedStrategy{}, time.UTC)
	require.Len(t, utcGroups, 1)

	romeGroups := GroupByDay(txs, IssuedStrategy{}, rome)
	require.Len(t, romeGroups, 2)
	assert.Equal(t, "2024-01-01", romeGroups[0].Day)
	assert.Equal(t, []int64{2, 3}, txIDs(romeGroups[0].Transactions))
	assert.Equal(t, "2024-01-02", romeGroups[1].Day)
	assert.Equal(t, rome, romeGroups[1].Date.Location())
}

func TestGroupByDayFlattenKeepsEveryTransactionOnce(t *testing.T) {
	base := at("2024-03-01T00:00:00Z")
	var txs []core.Transaction
	for i := 0; i < 40; i++ {
		exec := base.Add(time.Duration(i*7) * time.Hour)
		txs = append(txs, core.Transaction{
			ID:         int64(i + 1),
			IssuedAt:   base,
			ExecutedAt: &exec,
			UpdatedAt:  base.Add(time.Duration(40-i) * time.Minute),
		})
	}
	// a pending one in the history view falls back to its issue date
	txs = append(txs, core.Transaction{ID: 999, IssuedAt: base})

	for _, kind := range []ViewKind{ViewPending, ViewUpcoming, ViewHistory} {
		groups, err := GroupView(txs, kind, time.UTC)
		require.NoError(t, err)

		seen := map[int64]int{}
		for _, tx := range Flatten(groups) {
			seen[tx.ID]++
		}
		assert.Len(t, seen, len(txs), kind)
		for id, n := range seen {
			assert.Equal(t, 1, n, "transaction %d in %s", id, kind)
		}
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	assert.Empty(t, GroupByDay(nil, IssuedStrategy{}, time.UTC))
}

func TestStrategyForUnknownView(t *testing.T) {
	_, err := StrategyFor("archive")
	assert.Error(t, err)
}

func TestPerspectiveOf(t *testing.T) {
	tx := core.Transaction{
		Source:       core.AccountRef{ID: 5, Currency: "EUR"},
		Target:       core.AccountRef{ID: 7, Currency: "USD"},
		SourceAmount: -1000,
		TargetAmount: 1000,
	}

	fromSource := PerspectiveOf(tx, 5)
	assert.Equal(t, int64(7), fromSource.Counterparty.ID)
	assert.Equal(t, int64(-1000), fromSource.Amount)
	assert.Equal(t, Debit, fromSource.Direction)
	assert.Equal(t, "-", fromSource.Direction.Sign())
	assert.Equal(t, "EUR", fromSource.Currency)

	fromTarget := PerspectiveOf(tx, 7)
	assert.Equal(t, int64(5), fromTarget.Counterparty.ID)
	assert.Equal(t, int64(1000), fromTarget.Amount)
	assert.Equal(t, Credit, fromTarget.Direction)
	assert.Equal(t, "+", fromTarget.Direction.Sign())
	assert.Equal(t, "USD", fromTarget.Currency)
}

func txIDs(txs []core.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}
