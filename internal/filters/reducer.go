// Package filters holds the transaction filter state of a browsing session
// and the reducer that is the only way to change it.
package filters

import (
	"slices"
	"time"
)

const (
	ActionUpdateDates      ActionType = "UPDATE_DATES"
	ActionAddAccounts      ActionType = "ADD_ACCOUNTS"
	ActionRemoveAccounts   ActionType = "REMOVE_ACCOUNTS"
	ActionAddCategories    ActionType = "ADD_CATEGORIES"
	ActionRemoveCategories ActionType = "REMOVE_CATEGORIES"
	ActionClear            ActionType = "CLEAR"
)

type (
	ActionType string

	// Filters are the criteria sent to the transactions endpoints.
	// A nil bound is an open end.
	Filters struct {
		From       *time.Time
		To         *time.Time
		Accounts   []int64
		Categories []int64
	}

	// State is Filters plus whether anything was touched since the last clear.
	State struct {
		Filters
		Clearable bool
	}

	Action struct {
		Type ActionType
		From *time.Time
		To   *time.Time
		IDs  []int64
	}
)

// StartOfMonth returns local midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Initial is the default window [start of month, now] with empty selections.
func Initial(now time.Time) State {
	from := StartOfMonth(now)
	to := now
	return State{Filters: Filters{From: &from, To: &to}}
}

func UpdateDates(from, to *time.Time) Action {
	return Action{Type: ActionUpdateDates, From: from, To: to}
}

func AddAccounts(ids ...int64) Action {
	return Action{Type: ActionAddAccounts, IDs: ids}
}

func RemoveAccounts(ids ...int64) Action {
	return Action{Type: ActionRemoveAccounts, IDs: ids}
}

func AddCategories(ids ...int64) Action {
	return Action{Type: ActionAddCategories, IDs: ids}
}

func RemoveCategories(ids ...int64) Action {
	return Action{Type: ActionRemoveCategories, IDs: ids}
}

func Clear() Action {
	return Action{Type: ActionClear}
}

// Reducer applies actions to filter state. It remembers the initial state
// so CLEAR always lands on the same value for the lifetime of a session.
type Reducer struct {
	initial State
}

func NewReducer(now time.Time) *Reducer {
	return &Reducer{initial: Initial(now)}
}

// InitialState returns a copy of the state CLEAR resets to.
func (r *Reducer) InitialState() State {
	return r.initial.clone()
}

// Reduce is pure: the input state is never modified.
// Selections behave as sets; adding an id already present is a no-op
// apart from marking the state clearable.
func (r *Reducer) Reduce(s State, a Action) State {
	next := s.clone()
	switch a.Type {
	case ActionUpdateDates:
		next.From = copyTime(a.From)
		next.To = copyTime(a.To)
	case ActionAddAccounts:
		next.Accounts = union(next.Accounts, a.IDs)
	case ActionRemoveAccounts:
		next.Accounts = without(next.Accounts, a.IDs)
	case ActionAddCategories:
		next.Categories = union(next.Categories, a.IDs)
	case ActionRemoveCategories:
		next.Categories = without(next.Categories, a.IDs)
	case ActionClear:
		return r.InitialState()
	default:
		return s
	}
	next.Clearable = true
	return next
}

// Equal compares two states field by field; selection order matters.
func (s State) Equal(o State) bool {
	return s.Clearable == o.Clearable &&
		timeEqual(s.From, o.From) &&
		timeEqual(s.To, o.To) &&
		slices.Equal(s.Accounts, o.Accounts) &&
		slices.Equal(s.Categories, o.Categories)
}

func (s State) clone() State {
	return State{
		Filters: Filters{
			From:       copyTime(s.From),
			To:         copyTime(s.To),
			Accounts:   slices.Clone(s.Accounts),
			Categories: slices.Clone(s.Categories),
		},
		Clearable: s.Clearable,
	}
}

func union(have, add []int64) []int64 {
	out := slices.Clone(have)
	for _, id := range add {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func without(have, remove []int64) []int64 {
	out := make([]int64, 0, len(have))
	for _, id := range have {
		if !slices.Contains(remove, id) {
			out = append(out, id)
		}
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
