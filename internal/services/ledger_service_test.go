package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/middleware/trace"
	"finboard/internal/store"
	"finboard/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	msgs   []*amqp.MutationMessage
	err    error
	closed bool
}

func (p *recordingPublisher) PublishMutation(_ context.Context, msg *amqp.MutationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func newService(t *testing.T, pub Publisher) *LedgerService {
	t.Helper()
	mem, err := memory.NewSeeded(store.DefaultSeed(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewLedgerService(mem, pub, nil)
}

func sampleTransaction() core.Transaction {
	return core.Transaction{
		Source:       core.AccountRef{ID: 1},
		Target:       core.AccountRef{ID: 10},
		SourceAmount: -1000,
		TargetAmount: 1000,
		IssuedAt:     time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestLedgerService_PublishesMutations(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)
	ctx := trace.WithRequestID(context.Background(), "req-1")

	tx, err := svc.CreateTransaction(ctx, sampleTransaction())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.CreateAccount(ctx, core.Account{Kind: core.KindCapitalNormal, Name: "Spare", Currency: "EUR"}); err != nil {
		t.Fatalf("create account: %v", err)
	}

	if len(pub.msgs) != 3 {
		t.Fatalf("published %d messages, want 3", len(pub.msgs))
	}
	want := []string{"transaction.created", "transaction.deleted", "account.created"}
	for i, msg := range pub.msgs {
		if msg.RoutingKey() != want[i] {
			t.Errorf("message %d routing key = %q, want %q", i, msg.RoutingKey(), want[i])
		}
		if msg.RequestID != "req-1" {
			t.Errorf("message %d request id = %q", i, msg.RequestID)
		}
	}
	if pub.msgs[0].ID != tx.ID {
		t.Errorf("message id = %d, want %d", pub.msgs[0].ID, tx.ID)
	}
}

func TestLedgerService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newService(t, pub)

	if _, err := svc.CreateTransaction(context.Background(), sampleTransaction()); err != nil {
		t.Fatalf("create should succeed when publishing fails: %v", err)
	}
}

func TestLedgerService_StoreErrorSkipsPublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)

	err := svc.DeleteTransaction(context.Background(), 9999)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Errorf("no message expected on failure, got %d", len(pub.msgs))
	}
}

func TestLedgerService_NilPublisher(t *testing.T) {
	svc := newService(t, nil)
	if _, err := svc.CreateTransaction(context.Background(), sampleTransaction()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestLedgerService_Close(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Error("publisher should be closed")
	}
}
