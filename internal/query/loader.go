// Package query fetches the transaction listings for a filter state.
//
// Every refresh gets a sequence number. Only the newest refresh may publish
// its result, so a slow response for an old filter state never replaces the
// data of a newer one. Older in-flight refreshes are cancelled.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/api"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/filters"
)

// ErrSuperseded is returned by a refresh whose result was overtaken by a newer one.
var ErrSuperseded = errors.New("refresh superseded by a newer request")

// Source is the subset of the API client the loader needs.
type Source interface {
	ListTransactions(ctx context.Context, q api.TransactionQuery) ([]core.Transaction, error)
	ListPendingTransactions(ctx context.Context, q api.TransactionQuery) ([]core.Transaction, error)
}

// Page is what gets cached per filter key.
type Page struct {
	History []core.Transaction
	Pending []core.Transaction
}

// Result is a published refresh.
type Result struct {
	Sequence  uint64
	Filters   filters.Filters
	Page
	FetchedAt time.Time
	FromCache bool
}

type Loader struct {
	src    Source
	cache  *cache.LRUCache[Page]
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	seq        uint64
	generation uint64
	cancel     context.CancelFunc
	latest     Result
	hasLatest  bool
}

// NewLoader builds a loader backed by an LRU cache of size entries that
// expire after ttl.
func NewLoader(src Source, size int, ttl time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		src:    src,
		cache:  cache.NewLRUCache[Page](size, ttl),
		logger: logger,
		now:    time.Now,
	}
}

// Cache exposes the result cache, e.g. to register it with a cache.Manager.
func (l *Loader) Cache() *cache.LRUCache[Page] {
	return l.cache
}

// QueryFor converts filter criteria into API query parameters.
func QueryFor(f filters.Filters) api.TransactionQuery {
	return api.TransactionQuery{
		ExecutedFrom:  f.From,
		ExecutedUntil: f.To,
		Accounts:      f.Accounts,
		Categories:    f.Categories,
	}
}

// Refresh fetches history and pending transactions for f. A cached page is
// served without touching the network.
func (l *Loader) Refresh(ctx context.Context, f filters.Filters) (Result, error) {
	t := l.begin(ctx)
	defer t.cancel()
	return l.fetch(t, f)
}

// ticket is a claimed sequence number together with the context that the
// next refresh cancels.
type ticket struct {
	seq    uint64
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// begin claims the next sequence number and cancels the refresh in flight.
// Callers that fetch asynchronously must call it before handing off, so
// sequence order is request order.
func (l *Loader) begin(ctx context.Context) ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	return ticket{seq: l.seq, gen: l.generation, ctx: ctx, cancel: cancel}
}

func (l *Loader) fetch(t ticket, f filters.Filters) (Result, error) {
	seq := t.seq
	key := f.Key()
	if page, ok := l.cache.Get(key); ok {
		l.logger.Debug("Serving cached transactions", "sequence", seq, "key", key)
		return l.publish(Result{Sequence: seq, Filters: f, Page: page, FetchedAt: l.now(), FromCache: true})
	}

	q := QueryFor(f)
	var page Page
	g, gctx := errgroup.WithContext(t.ctx)
	g.Go(func() error {
		txs, err := l.src.ListTransactions(gctx, q)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		page.History = txs
		return nil
	})
	g.Go(func() error {
		txs, err := l.src.ListPendingTransactions(gctx, q)
		if err != nil {
			return fmt.Errorf("pending: %w", err)
		}
		page.Pending = txs
		return nil
	})

	if err := g.Wait(); err != nil {
		if !l.isCurrent(seq) {
			return Result{}, ErrSuperseded
		}
		l.logger.Error("Failed to refresh transactions", "sequence", seq, "error", err)
		return Result{}, fmt.Errorf("refresh %d: %w", seq, err)
	}

	l.mu.Lock()
	if l.generation == t.gen {
		l.cache.Set(key, page)
	}
	l.mu.Unlock()

	return l.publish(Result{Sequence: seq, Filters: f, Page: page, FetchedAt: l.now()})
}

func (l *Loader) isCurrent(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return seq == l.seq
}

func (l *Loader) publish(r Result) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r.Sequence != l.seq {
		l.logger.Debug("Dropping stale result", "sequence", r.Sequence, "newest", l.seq)
		return Result{}, ErrSuperseded
	}
	l.latest = r
	l.hasLatest = true
	return r, nil
}

// Latest returns the last published result.
func (l *Loader) Latest() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest, l.hasLatest
}

// Invalidate drops every cached page. Pages fetched by refreshes already in
// flight are not cached either.
func (l *Loader) Invalidate() int {
	l.mu.Lock()
	l.generation++
	l.mu.Unlock()
	n := l.cache.Purge()
	l.logger.Info("Query cache invalidated", "entries_removed", n)
	return n
}

// Bind refreshes on every change of the store's state and passes each
// outcome to handle. Superseded refreshes are not reported. The sequence
// number is claimed inside the store notification, which arrives in
// revision order, so the newest state always wins. The returned function
// unsubscribes.
func (l *Loader) Bind(ctx context.Context, store *filters.Store, handle func(Result, error)) func() {
	return store.Subscribe(func(s filters.State) {
		t := l.begin(ctx)
		go func() {
			defer t.cancel()
			r, err := l.fetch(t, s.Filters)
			if errors.Is(err, ErrSuperseded) {
				return
			}
			if handle != nil {
				handle(r, err)
			}
		}()
	})
}
