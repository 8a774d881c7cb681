package views

import (
	"fmt"
	"slices"
	"time"

	"finboard/internal/core"
)

// Status is where a transaction sits relative to the current time.
type Status int

const (
	Historical Status = iota
	Upcoming
	Pending
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Upcoming:
		return "upcoming"
	default:
		return "historical"
	}
}

// Classify must be called with the current clock on every render: an
// upcoming transaction turns historical once now passes its execution date.
func Classify(tx core.Transaction, now time.Time) Status {
	switch {
	case tx.ExecutedAt == nil:
		return Pending
	case tx.ExecutedAt.After(now):
		return Upcoming
	default:
		return Historical
	}
}

// Split buckets transactions by status, keeping input order.
func Split(txs []core.Transaction, now time.Time) (pending, upcoming, historical []core.Transaction) {
	for _, tx := range txs {
		switch Classify(tx, now) {
		case Pending:
			pending = append(pending, tx)
		case Upcoming:
			upcoming = append(upcoming, tx)
		default:
			historical = append(historical, tx)
		}
	}
	return pending, upcoming, historical
}

// ViewKind names one of the transaction lists.
type ViewKind string

const (
	ViewPending  ViewKind = "pending"
	ViewUpcoming ViewKind = "upcoming"
	ViewHistory  ViewKind = "history"
)

// Strategy describes how a view orders and buckets its transactions.
type Strategy interface {
	// Key is the date the transaction is grouped and sorted by.
	Key(tx core.Transaction) time.Time
	// Descending reports whether the newest day comes first.
	Descending() bool
}

// IssuedStrategy groups by issue date, soonest first.
type IssuedStrategy struct{}

func (IssuedStrategy) Key(tx core.Transaction) time.Time { return tx.IssuedAt }
func (IssuedStrategy) Descending() bool                  { return false }

// ExecutedStrategy groups by execution date, falling back to the issue
// date for transactions that have none.
type ExecutedStrategy struct {
	Newest bool
}

func (s ExecutedStrategy) Key(tx core.Transaction) time.Time {
	if tx.ExecutedAt == nil {
		return tx.IssuedAt
	}
	return *tx.ExecutedAt
}

func (s ExecutedStrategy) Descending() bool { return s.Newest }

var viewStrategies = map[ViewKind]Strategy{
	ViewPending:  IssuedStrategy{},
	ViewUpcoming: ExecutedStrategy{},
	ViewHistory:  ExecutedStrategy{Newest: true},
}

// StrategyFor returns the strategy registered for a view.
func StrategyFor(kind ViewKind) (Strategy, error) {
	s, ok := viewStrategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown transaction view: %s", kind)
	}
	return s, nil
}

// DayGroup is every transaction sharing one calendar day.
type DayGroup struct {
	Day          string // 2006-01-02 in the grouping location
	Date         time.Time
	Transactions []core.Transaction
}

const dayLayout = "2006-01-02"

// GroupByDay sorts by the strategy key, buckets by calendar day in loc and
// orders each bucket by last modification. Group order follows the key
// direction. A nil loc means time.Local.
func GroupByDay(txs []core.Transaction, s Strategy, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		c := s.Key(a).Compare(s.Key(b))
		if s.Descending() {
			return -c
		}
		return c
	})

	var groups []DayGroup
	for _, tx := range sorted {
		key := s.Key(tx).In(loc)
		day := key.Format(dayLayout)
		if n := len(groups); n > 0 && groups[n-1].Day == day {
			groups[n-1].Transactions = append(groups[n-1].Transactions, tx)
			continue
		}
		groups = append(groups, DayGroup{
			Day:          day,
			Date:         time.Date(key.Year(), key.Month(), key.Day(), 0, 0, 0, 0, loc),
			Transactions: []core.Transaction{tx},
		})
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Transactions, func(a, b core.Transaction) int {
			return a.UpdatedAt.Compare(b.UpdatedAt)
		})
	}
	return groups
}

// GroupView is GroupByDay using the registered strategy for kind.
func GroupView(txs []core.Transaction, kind ViewKind, loc *time.Location) ([]DayGroup, error) {
	s, err := StrategyFor(kind)
	if err != nil {
		return nil, err
	}
	return GroupByDay(txs, s, loc), nil
}

// Flatten concatenates the groups back into one list.
func Flatten(groups []DayGroup) []core.Transaction {
	var out []core.Transaction
	for _, g := range groups {
		out = append(out, g.Transactions...)
	}
	return out
}

// Direction is the side of a transaction the focal account is on.
type Direction int

const (
	// Credit: money arrives at the focal account. Rendered "+" in green.
	Credit Direction = iota
	// Debit: money leaves the focal account. Rendered "-" in red.
	Debit
)

func (d Direction) Sign() string {
	if d == Debit {
		return "-"
	}
	return "+"
}

// Perspective is a transaction as seen from one account.
type Perspective struct {
	Counterparty core.AccountRef
	Amount       int64
	Currency     string
	Direction    Direction
}

// PerspectiveOf compares the source id with the focal account: when it is
// the source the other party is the target and the source amount is shown,
// otherwise the other party is the source and the target amount is shown.
func PerspectiveOf(tx core.Transaction, focalID int64) Perspective {
	if tx.Source.ID == focalID {
		return Perspective{
			Counterparty: tx.Target,
			Amount:       tx.SourceAmount,
			Currency:     tx.Source.Currency,
			Direction:    Debit,
		}
	}
	return Perspective{
		Counterparty: tx.Source,
		Amount:       tx.TargetAmount,
		Currency:     tx.Target.Currency,
		Direction:    Credit,
	}
}
