package services

import (
	"context"
	"errors"
	"time"

	"mybudget/internal/core"
)

var ErrUnknownCategory = errors.New("unknown category")

// TransactionStore is the persistence the ledger needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	Balance(ctx context.Context) (core.Balance, error)
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

type TotalsStore interface {
	CategoryTotals(ctx context.Context, from, to time.Time) ([]core.CategoryTotal, error)
}

type BudgetStore interface {
	ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error)
	SaveBudgets(ctx context.Context, budgets []core.Budget) error
	CopyBudgets(ctx context.Context, fromYear, fromMonth, toYear, toMonth int) (int64, error)
}

// EventPublisher announces committed transactions. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, id int64) error
}

// Invalidator drops derived data after a write.
type Invalidator interface {
	Invalidate()
}
