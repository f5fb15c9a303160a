// Package services orchestrates storage, the exchange rate feed, the
// message queue and the advisor behind the HTTP handlers. SQLite is
// always written first; mirror sync messages are best effort.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"brisa/internal/amqp"
	"brisa/internal/core"
	"brisa/internal/storage"
)

// TransactionStore is the slice of storage the ledger service uses.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// SyncPublisher enqueues mirror reconcile requests. *amqp.Client
// satisfies it; a nil publisher disables mirroring.
type SyncPublisher interface {
	PublishRecordSync(ctx context.Context, recordID, action string) error
}

type LedgerService struct {
	store TransactionStore
	queue SyncPublisher
}

func NewLedgerService(store TransactionStore, queue SyncPublisher) *LedgerService {
	return &LedgerService{
		store: store,
		queue: queue,
	}
}

// Create validates and saves a transaction, then queues a mirror sync.
// A queue failure never fails the request; the record is already safe
// locally.
func (s *LedgerService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, saved.ID, amqp.ActionUpsert)
	return saved, nil
}

func (s *LedgerService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *LedgerService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Delete removes a transaction locally and queues the mirror delete.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, id, amqp.ActionDelete)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, id, action string) {
	if s.queue == nil {
		slog.DebugContext(ctx, "No sync queue configured, skipping mirror sync", "record_id", id)
		return
	}
	if err := s.queue.PublishRecordSync(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"record_id", id,
			"action", action,
			"error", err)
	}
}
