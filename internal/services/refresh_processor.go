package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finboard/internal/filters"
	"finboard/internal/query"
)

// RefreshProcessorConfig holds configuration for the refresh processor
type RefreshProcessorConfig struct {
	// Interval between periodic refreshes (default: 30s)
	Interval time.Duration
}

func DefaultRefreshProcessorConfig() RefreshProcessorConfig {
	return RefreshProcessorConfig{Interval: 30 * time.Second}
}

// Refresher is satisfied by *query.Loader.
type Refresher interface {
	Refresh(ctx context.Context, f filters.Filters) (query.Result, error)
}

// RefreshProcessor re-fetches the current filter state on a ticker and on
// demand. Every outcome goes to the handler together with the clock time of
// the tick, so views re-classify upcoming and historical transactions even
// when the data itself did not change.
type RefreshProcessor struct {
	loader Refresher
	store  *filters.Store
	handle func(query.Result, time.Time, error)
	config RefreshProcessorConfig
	now    func() time.Time

	// Lifecycle management
	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	triggerCh chan struct{}
}

func NewRefreshProcessor(loader Refresher, store *filters.Store, handle func(query.Result, time.Time, error), config RefreshProcessorConfig) *RefreshProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultRefreshProcessorConfig().Interval
	}
	return &RefreshProcessor{
		loader:    loader,
		store:     store,
		handle:    handle,
		config:    config,
		now:       time.Now,
		triggerCh: make(chan struct{}, 1),
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (p *RefreshProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("refresh processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Refresh processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for the refresh in progress.
func (p *RefreshProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Refresh processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *RefreshProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trigger asks for a refresh as soon as possible. Calls made while one is
// already queued collapse into it.
func (p *RefreshProcessor) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

func (p *RefreshProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Refresh immediately on startup
	p.refresh(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		case <-p.triggerCh:
			p.refresh(ctx)
		}
	}
}

func (p *RefreshProcessor) refresh(ctx context.Context) {
	f := p.store.State().Filters
	r, err := p.loader.Refresh(ctx, f)
	if errors.Is(err, query.ErrSuperseded) {
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "Periodic refresh failed", "error", err)
	}
	if p.handle != nil {
		p.handle(r, p.now(), err)
	}
}
