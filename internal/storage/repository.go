package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mybudget/internal/core"
	"mybudget/internal/log"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SeedCategories installs cats when no category exists yet.
// It reports how many categories were inserted.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, cats []core.Category) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	count, err := q.CountCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, c := range cats {
		if _, err := q.CreateCategory(ctx, CreateCategoryParams{Name: c.Name, Color: c.Color}); err != nil {
			return 0, fmt.Errorf("create category %q: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed transaction: %w", err)
	}

	log.ForComponent(log.ComponentStorage).InfoContext(ctx, "Seeded default categories",
		log.FieldOperation, log.OpSeed,
		"count", len(cats))
	return len(cats), nil
}

// CreateCategory stores a new category.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.CreateCategory(ctx, CreateCategoryParams{Name: c.Name, Color: c.Color})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return toCoreCategory(row), nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := make([]core.Category, len(rows))
	for i, row := range rows {
		cats[i] = toCoreCategory(row)
	}
	return cats, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return toCoreCategory(row), nil
}

// CreateTransaction stores t and returns its id.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var categoryID sql.NullInt64
	if t.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *t.CategoryID, Valid: true}
	}
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		AmountCents: t.Amount.Cents,
		Description: t.Description,
		OccurredAt:  formatTime(t.Date),
		Type:        string(t.Type),
		CategoryID:  categoryID,
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	log.ForComponent(log.ComponentStorage).InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldOperation, log.OpCreate,
		log.FieldTransactionID, id,
		log.FieldType, t.Type,
		log.FieldAmountCents, t.Amount.Cents,
		log.FieldCategoryID, categoryID.Int64)

	return id, nil
}

// DeleteTransaction removes the transaction with id, or returns
// core.ErrNotFound.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}

	log.ForComponent(log.ComponentStorage).InfoContext(ctx, "Transaction deleted from SQLite",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return toCoreTransaction(row)
}

// ListTransactions returns the newest transactions first. A limit <= 0
// returns all of them.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	l := int64(limit)
	if l <= 0 {
		l = -1
	}
	rows, err := r.queries.ListTransactions(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCoreTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Balance sums all-time income and expenses.
func (r *SQLiteRepository) Balance(ctx context.Context) (core.Balance, error) {
	income, err := r.queries.SumByType(ctx, string(core.Income))
	if err != nil {
		return core.Balance{}, fmt.Errorf("sum income: %w", err)
	}
	expenses, err := r.queries.SumByType(ctx, string(core.Expense))
	if err != nil {
		return core.Balance{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Balance{Income: core.Money{Cents: income}, Expenses: core.Money{Cents: expenses}}, nil
}

// CategoryTotals aggregates categorized expenses inside [from, to). Zero
// bounds are open. Categories without expenses are omitted.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, from, to time.Time) ([]core.CategoryTotal, error) {
	rows, err := r.queries.GetCategoryTotals(ctx, GetCategoryTotalsParams{
		From: formatBound(from),
		To:   formatBound(to),
	})
	if err != nil {
		return nil, fmt.Errorf("get category totals: %w", err)
	}
	totals := make([]core.CategoryTotal, len(rows))
	for i, row := range rows {
		totals[i] = core.CategoryTotal{
			CategoryID: row.CategoryID,
			Name:       row.Name,
			Color:      row.Color,
			Amount:     core.Money{Cents: row.TotalAmount},
		}
	}
	return totals, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, ListBudgetsParams{Year: int64(year), Month: int64(month)})
	if err != nil {
		return nil, fmt.Errorf("list budgets %d-%02d: %w", year, month, err)
	}
	budgets := make([]core.Budget, len(rows))
	for i, row := range rows {
		budgets[i] = core.Budget{
			ID:         row.ID,
			CategoryID: row.CategoryID,
			Year:       int(row.Year),
			Month:      int(row.Month),
			Amount:     core.Money{Cents: row.AmountCents},
		}
	}
	return budgets, nil
}

// SaveBudgets upserts every budget in one transaction.
func (r *SQLiteRepository) SaveBudgets(ctx context.Context, budgets []core.Budget) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin budget transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, b := range budgets {
		if err := q.UpsertBudget(ctx, UpsertBudgetParams{
			CategoryID:  b.CategoryID,
			Year:        int64(b.Year),
			Month:       int64(b.Month),
			AmountCents: b.Amount.Cents,
		}); err != nil {
			return fmt.Errorf("upsert budget for category %d: %w", b.CategoryID, err)
		}
	}
	return tx.Commit()
}

// CopyBudgets overwrites the budgets of the target month with those of the
// source month and reports how many rows were written.
func (r *SQLiteRepository) CopyBudgets(ctx context.Context, fromYear, fromMonth, toYear, toMonth int) (int64, error) {
	n, err := r.queries.CopyBudgets(ctx, CopyBudgetsParams{
		FromYear:  int64(fromYear),
		FromMonth: int64(fromMonth),
		ToYear:    int64(toYear),
		ToMonth:   int64(toMonth),
	})
	if err != nil {
		return 0, fmt.Errorf("copy budgets %d-%02d -> %d-%02d: %w", fromYear, fromMonth, toYear, toMonth, err)
	}
	return n, nil
}

func toCoreCategory(row Category) core.Category {
	return core.Category{ID: row.ID, Name: row.Name, Color: row.Color}
}

func toCoreTransaction(row TransactionRow) (core.Transaction, error) {
	when, err := time.Parse(timeLayout, row.OccurredAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_at of transaction %d: %w", row.ID, err)
	}
	t := core.Transaction{
		ID:          row.ID,
		Amount:      core.Money{Cents: row.AmountCents},
		Description: row.Description,
		Date:        when,
		Type:        core.TransactionType(row.Type),
	}
	if row.CategoryID.Valid {
		id := row.CategoryID.Int64
		t.CategoryID = &id
		t.CategoryName = row.CategoryName.String
		t.CategoryColor = row.CategoryColor.String
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return formatTime(t)
}
