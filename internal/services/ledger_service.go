package services

import (
	"context"
	"errors"
	"fmt"

	"mybudget/internal/core"
	"mybudget/internal/log"
)

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 5

type LedgerStore interface {
	TransactionStore
	CategoryStore
}

// LedgerService records transactions in SQLite and fans out the change: the
// stats cache is invalidated and an export event is published.
type LedgerService struct {
	store     LedgerStore
	publisher EventPublisher
	stats     Invalidator
}

// NewLedgerService wires the service. publisher and stats may be nil; pass an
// untyped nil rather than a nil pointer so the checks below see it.
func NewLedgerService(store LedgerStore, publisher EventPublisher, stats Invalidator) *LedgerService {
	return &LedgerService{store: store, publisher: publisher, stats: stats}
}

// CreateTransaction validates and saves t and returns its id. Publishing
// failures are logged; the local save is what the caller depends on.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	if t.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, *t.CategoryID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return 0, fmt.Errorf("%w: %d", ErrUnknownCategory, *t.CategoryID)
			}
			return 0, fmt.Errorf("check category: %w", err)
		}
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if s.stats != nil {
		s.stats.Invalidate()
	}

	logger := log.ForComponent(log.ComponentLedger)
	if s.publisher == nil {
		logger.DebugContext(ctx, "AMQP publisher not configured, skipping export event", log.FieldTransactionID, id)
		return id, nil
	}
	if err := s.publisher.PublishTransactionCreated(ctx, id); err != nil {
		logger.ErrorContext(ctx, "Failed to publish transaction event", log.FieldTransactionID, id, log.FieldError, err)
	}
	return id, nil
}

// DeleteTransaction removes the transaction and drops cached stats. Rows
// already exported to the sheet are left in place.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	if s.stats != nil {
		s.stats.Invalidate()
	}
	log.ForComponent(log.ComponentLedger).InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id)
	return nil
}

func (s *LedgerService) Transaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *LedgerService) Recent(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, RecentLimit)
}

// History returns every transaction, newest first.
func (s *LedgerService) History(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, 0)
}

func (s *LedgerService) Balance(ctx context.Context) (core.Balance, error) {
	return s.store.Balance(ctx)
}

func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}
