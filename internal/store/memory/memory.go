// Package memory is an in-process ledger for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/store"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int64
	accounts map[int64]core.Account // Balance holds the opening balance
	order    []int64
	txs      map[int64]core.Transaction
	goals    []core.Goal
}

var _ store.Ledger = (*Store)(nil)

func New() *Store {
	return &Store{
		now:      time.Now,
		accounts: make(map[int64]core.Account),
		txs:      make(map[int64]core.Transaction),
	}
}

// NewSeeded returns a store loaded with seed. Ids in the seed are kept.
func NewSeeded(seed store.Seed) (*Store, error) {
	s := New()
	for _, a := range seed.Accounts {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("seed account %q: %w", a.Name, err)
		}
		s.putAccount(a)
		for _, c := range a.Children {
			c.ParentID = &a.ID
			s.putAccount(c)
		}
	}
	for _, tx := range seed.Transactions {
		if err := s.checkRefs(tx); err != nil {
			return nil, fmt.Errorf("seed transaction %d: %w", tx.ID, err)
		}
		s.bump(tx.ID)
		s.txs[tx.ID] = tx
	}
	for _, g := range seed.Goals {
		s.bump(g.ID)
		s.goals = append(s.goals, g)
	}
	return s, nil
}

// NewFromFile loads a JSON seed, falling back to DefaultSeed when path is
// empty or missing.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return NewSeeded(store.DefaultSeed(time.Now()))
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewSeeded(store.DefaultSeed(time.Now()))
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed store.Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return NewSeeded(seed)
}

func (s *Store) putAccount(a core.Account) {
	a.Children = nil
	s.bump(a.ID)
	if _, ok := s.accounts[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.accounts[a.ID] = a
}

func (s *Store) bump(id int64) {
	if id > s.nextID {
		s.nextID = id
	}
}

func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) checkRefs(tx core.Transaction) error {
	if _, ok := s.accounts[tx.Source.ID]; !ok {
		return fmt.Errorf("source account %d: %w", tx.Source.ID, core.ErrNotFound)
	}
	if _, ok := s.accounts[tx.Target.ID]; !ok {
		return fmt.Errorf("target account %d: %w", tx.Target.ID, core.ErrNotFound)
	}
	return nil
}

func (s *Store) checkParent(a core.Account) error {
	if a.ParentID == nil {
		return nil
	}
	p, ok := s.accounts[*a.ParentID]
	if !ok {
		return fmt.Errorf("parent account %d: %w", *a.ParentID, core.ErrNotFound)
	}
	if p.ParentID != nil || *a.ParentID == a.ID {
		return core.ErrNestedChildren
	}
	for _, other := range s.accounts {
		if other.ParentID != nil && *other.ParentID == a.ID {
			return core.ErrNestedChildren
		}
	}
	return nil
}

// balance is the opening balance plus every executed movement.
func (s *Store) balance(a core.Account) int64 {
	total := a.Balance
	for _, tx := range s.txs {
		if tx.IsPending() {
			continue
		}
		if tx.Source.ID == a.ID {
			total += tx.SourceAmount
		}
		if tx.Target.ID == a.ID {
			total += tx.TargetAmount
		}
	}
	return total
}

func (s *Store) view(a core.Account) core.Account {
	a.Balance = s.balance(a)
	return a
}

func (s *Store) ref(id int64) core.AccountRef {
	a := s.accounts[id]
	r := a.Ref()
	if a.ParentID != nil {
		if p, ok := s.accounts[*a.ParentID]; ok {
			pr := p.Ref()
			r.Parent = &pr
		}
	}
	return r
}

func (s *Store) hydrate(tx core.Transaction) core.Transaction {
	tx.Source = s.ref(tx.Source.ID)
	tx.Target = s.ref(tx.Target.ID)
	return tx
}

func (s *Store) ListAccounts(_ context.Context, f store.AccountFilter) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.order))
	for _, id := range s.order {
		a := s.accounts[id]
		if f.Match(a) {
			out = append(out, s.view(a))
		}
	}
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return s.view(a), nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = 0
	if err := s.checkParent(a); err != nil {
		return core.Account{}, err
	}
	a.ID = s.newID()
	s.putAccount(a)
	return s.view(s.accounts[a.ID]), nil
}

// UpdateAccount keeps the stored opening balance; balances only move through transactions.
func (s *Store) UpdateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[a.ID]
	if !ok {
		return core.Account{}, fmt.Errorf("account %d: %w", a.ID, core.ErrNotFound)
	}
	if err := s.checkParent(a); err != nil {
		return core.Account{}, err
	}
	a.Balance = cur.Balance
	a.Children = nil
	s.accounts[a.ID] = a
	return s.view(a), nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	for _, tx := range s.txs {
		if tx.Source.ID == id || tx.Target.ID == id {
			return fmt.Errorf("account %d: %w", id, store.ErrInUse)
		}
	}
	for _, a := range s.accounts {
		if a.ParentID != nil && *a.ParentID == id {
			return fmt.Errorf("account %d: %w", id, store.ErrInUse)
		}
	}
	delete(s.accounts, id)
	s.order = slices.DeleteFunc(s.order, func(v int64) bool { return v == id })
	return nil
}

func (s *Store) ListTransactions(_ context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.txs {
		tx = s.hydrate(tx)
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	store.SortTransactions(out)
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return s.hydrate(tx), nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(tx); err != nil {
		return core.Transaction{}, err
	}
	now := s.now().UTC()
	tx.ID = s.newID()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	s.txs[tx.ID] = tx
	return s.hydrate(tx), nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.txs[tx.ID]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", tx.ID, core.ErrNotFound)
	}
	if err := s.checkRefs(tx); err != nil {
		return core.Transaction{}, err
	}
	tx.CreatedAt = cur.CreatedAt
	tx.UpdatedAt = s.now().UTC()
	s.txs[tx.ID] = tx
	return s.hydrate(tx), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Goal{}, s.goals...)
	slices.SortStableFunc(out, func(a, b core.Goal) int { return a.Position - b.Position })
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.newID()
	if g.Position == 0 {
		g.Position = len(s.goals) + 1
	}
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) Close() error { return nil }
