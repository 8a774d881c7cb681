// Package store defines the persistence ports of the development API server
// and the filtering rules every implementation shares.
package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"finboard/internal/core"
)

// ErrInUse is returned when deleting an account that transactions or child
// accounts still reference.
var ErrInUse = errors.New("account is still referenced")

// Ports for outbound adapters.
type (
	AccountStore interface {
		// ListAccounts returns a flat list; children carry ParentID.
		ListAccounts(ctx context.Context, f AccountFilter) ([]core.Account, error)
		GetAccount(ctx context.Context, id int64) (core.Account, error)
		// CreateAccount treats Balance as the opening balance.
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
		DeleteAccount(ctx context.Context, id int64) error
	}

	TransactionStore interface {
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	GoalStore interface {
		ListGoals(ctx context.Context) ([]core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	}

	// Ledger is everything the API server needs from a backend.
	Ledger interface {
		AccountStore
		TransactionStore
		GoalStore
		Close() error
	}
)

// Pending selects which side of the executed/pending split a listing returns.
type Pending int

const (
	AnyState Pending = iota
	ExecutedOnly
	PendingOnly
)

type AccountFilter struct {
	// Kinds restricts the listing; empty means every kind.
	Kinds []core.AccountKind
	// Archived includes archived accounts when true.
	Archived bool
}

func (f AccountFilter) Match(a core.Account) bool {
	if a.Archived && !f.Archived {
		return false
	}
	return len(f.Kinds) == 0 || slices.Contains(f.Kinds, a.Kind)
}

type TransactionFilter struct {
	State Pending
	// ExecutedFrom and ExecutedUntil are inclusive bounds on ExecutedAt.
	// Pending transactions are never excluded by them.
	ExecutedFrom  *time.Time
	ExecutedUntil *time.Time
	// Accounts matches the source or target account or their parents.
	Accounts   []int64
	Categories []int64
}

func (f TransactionFilter) Match(tx core.Transaction) bool {
	switch f.State {
	case ExecutedOnly:
		if tx.IsPending() {
			return false
		}
	case PendingOnly:
		if !tx.IsPending() {
			return false
		}
	}
	if tx.ExecutedAt != nil {
		if f.ExecutedFrom != nil && tx.ExecutedAt.Before(*f.ExecutedFrom) {
			return false
		}
		if f.ExecutedUntil != nil && tx.ExecutedAt.After(*f.ExecutedUntil) {
			return false
		}
	}
	if len(f.Accounts) > 0 && !slices.ContainsFunc(f.Accounts, func(id int64) bool {
		return tx.Source.Matches(id) || tx.Target.Matches(id)
	}) {
		return false
	}
	if len(f.Categories) > 0 && (tx.CategoryID == nil || !slices.Contains(f.Categories, *tx.CategoryID)) {
		return false
	}
	return true
}

// Nest attaches each account to its parent when the parent is in the list.
// Accounts whose parent is absent are appended after the roots.
func Nest(flat []core.Account) []core.Account {
	index := make(map[int64]int, len(flat))
	var roots []core.Account
	for _, a := range flat {
		if a.ParentID == nil {
			index[a.ID] = len(roots)
			a.Children = nil
			roots = append(roots, a)
		}
	}
	for _, a := range flat {
		if a.ParentID == nil {
			continue
		}
		if i, ok := index[*a.ParentID]; ok {
			a.Children = nil
			roots[i].Children = append(roots[i].Children, a)
			continue
		}
		roots = append(roots, a)
	}
	if roots == nil {
		roots = []core.Account{}
	}
	return roots
}

// SortTransactions orders listings by issue date, then id.
func SortTransactions(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		if c := a.IssuedAt.Compare(b.IssuedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
