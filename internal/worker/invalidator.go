// Package worker reacts to ledger mutation events announced over AMQP.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"finboard/internal/amqp"
	applog "finboard/internal/log"
)

// Cache is satisfied by *query.Loader.
type Cache interface {
	Invalidate() int
}

// Consumer is satisfied by *amqp.Client.
type Consumer interface {
	ConsumeMutations(ctx context.Context, handler func(context.Context, *amqp.MutationMessage) error) error
}

// Invalidator drops cached transaction pages whenever the ledger changes
// and asks for a fresh fetch of the current filter state.
type Invalidator struct {
	cache   Cache
	refresh func()
	logger  *applog.Logger
	handled int64
	ignored int64
}

// NewInvalidator wires the cache with refresh, which may be nil.
func NewInvalidator(cache Cache, refresh func(), logger *applog.Logger) *Invalidator {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Invalidator{
		cache:   cache,
		refresh: refresh,
		logger:  logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleMutation processes a single mutation message from AMQP.
func (w *Invalidator) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	if err := msg.Validate(); err != nil {
		// acked so they are not redelivered
		atomic.AddInt64(&w.ignored, 1)
		w.logger.WarnContext(ctx, "Ignoring invalid mutation message", "error", err)
		return nil
	}

	removed := w.cache.Invalidate()
	atomic.AddInt64(&w.handled, 1)
	w.logger.InfoContext(ctx, "Ledger changed, cache invalidated",
		applog.FieldEntity, msg.Entity,
		applog.FieldOperation, msg.Op,
		"id", msg.ID,
		applog.FieldRequestID, msg.RequestID,
		"entries_removed", removed)

	if w.refresh != nil {
		w.refresh()
	}
	return nil
}

// Handled counts processed mutation messages.
func (w *Invalidator) Handled() int64 {
	return atomic.LoadInt64(&w.handled)
}

// Ignored counts invalid mutation messages that were acked without effect.
func (w *Invalidator) Ignored() int64 {
	return atomic.LoadInt64(&w.ignored)
}

// Run consumes mutation events until ctx is cancelled.
func (w *Invalidator) Run(ctx context.Context, consumer Consumer) error {
	slog.InfoContext(ctx, "Watching ledger mutations")
	if err := consumer.ConsumeMutations(ctx, w.HandleMutation); err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume mutations: %w", err)
	}
	return nil
}
