package backend

import (
	"context"
	"fmt"
	"time"

	"finboard/internal/amqp"
	applog "finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/storage"
	"finboard/internal/store"
	"finboard/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend opens the configured store and wraps it in a
// LedgerService, with an AMQP publisher when one is configured.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		ledger store.Ledger
		ready  HealthFunc
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		ledger, ready, err = f.createSQLiteLedger(ctx, config)
	case MemoryBackend:
		ledger, err = f.createMemoryLedger(config)
		ready = func(context.Context) error { return nil }
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	// A nil *amqp.Client must not become a non-nil Publisher.
	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, "")
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without mutation events", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange)
		}
	}

	svc := services.NewLedgerService(ledger, publisher, f.logger)
	return &BackendResult{
		Ledger:  svc,
		Cleanup: svc.Close,
		Ready:   ready,
		Events:  publisher != nil,
	}, nil
}

func (f *DefaultFactory) createSQLiteLedger(ctx context.Context, config Config) (store.Ledger, HealthFunc, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedEmpty {
		existing, err := repo.ListAccounts(ctx, store.AccountFilter{Archived: true})
		if err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("check existing accounts: %w", err)
		}
		if len(existing) == 0 {
			if err := store.Import(ctx, repo, store.DefaultSeed(time.Now())); err != nil {
				repo.Close()
				return nil, nil, fmt.Errorf("seed sqlite ledger: %w", err)
			}
			f.logger.Info("Seeded empty SQLite ledger")
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, repo.Ping, nil
}

func (f *DefaultFactory) createMemoryLedger(config Config) (store.Ledger, error) {
	mem, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
	return mem, nil
}
