// Package services wraps a ledger store with the side effects of a mutation.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/middleware/trace"
	"finboard/internal/store"
)

// Publisher is satisfied by *amqp.Client.
type Publisher interface {
	PublishMutation(ctx context.Context, msg *amqp.MutationMessage) error
	Close() error
}

// LedgerService stores mutations first and announces them afterwards.
// A failed announcement is logged and never fails the request: the data
// is already saved and watchers fall back to periodic refreshes.
type LedgerService struct {
	store.Ledger
	publisher Publisher
	logger    *applog.StructuredLogger
}

var _ store.Ledger = (*LedgerService)(nil)

// NewLedgerService wires a ledger with an optional publisher (nil disables events).
func NewLedgerService(ledger store.Ledger, publisher Publisher, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &LedgerService{
		Ledger:    ledger,
		publisher: publisher,
		logger:    applog.NewStructuredLogger(logger.WithComponent(applog.ComponentLedger)),
	}
}

func (s *LedgerService) publish(ctx context.Context, entity, op string, id int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping mutation message", "entity", entity, "id", id)
		return
	}
	msg := amqp.NewMutationMessage(entity, op, id)
	msg.RequestID = trace.GetRequestID(ctx)
	if err := s.publisher.PublishMutation(ctx, msg); err != nil {
		s.logger.LogError(ctx, "Failed to publish mutation message", err, applog.ComponentAMQP, applog.OpCreate,
			applog.NewFields().WithRequestID(msg.RequestID))
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	created, err := s.Ledger.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	s.logger.LogAccountMutation(ctx, applog.OpCreate, created.ID)
	s.publish(ctx, amqp.EntityAccount, amqp.OpCreated, created.ID)
	return created, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	updated, err := s.Ledger.UpdateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	s.logger.LogAccountMutation(ctx, applog.OpUpdate, updated.ID)
	s.publish(ctx, amqp.EntityAccount, amqp.OpUpdated, updated.ID)
	return updated, nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.Ledger.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.LogAccountMutation(ctx, applog.OpDelete, id)
	s.publish(ctx, amqp.EntityAccount, amqp.OpDeleted, id)
	return nil
}

func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := s.Ledger.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.logger.LogTransactionMutation(ctx, applog.OpCreate, created.ID, created.Source.ID, created.Target.ID, created.SourceAmount)
	s.publish(ctx, amqp.EntityTransaction, amqp.OpCreated, created.ID)
	return created, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	updated, err := s.Ledger.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.logger.LogTransactionMutation(ctx, applog.OpUpdate, updated.ID, updated.Source.ID, updated.Target.ID, updated.SourceAmount)
	s.publish(ctx, amqp.EntityTransaction, amqp.OpUpdated, updated.ID)
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.Ledger.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.logger.LogTransactionMutation(ctx, applog.OpDelete, id, 0, 0, 0)
	s.publish(ctx, amqp.EntityTransaction, amqp.OpDeleted, id)
	return nil
}

func (s *LedgerService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	created, err := s.Ledger.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	s.publish(ctx, amqp.EntityGoal, amqp.OpCreated, created.ID)
	return created, nil
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.Ledger != nil {
		if err := s.Ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
