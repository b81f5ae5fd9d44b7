package storage

import (
	"context"
	"database/sql"
)

type Category struct {
	ID    int64
	Name  string
	Color string
}

type TransactionRow struct {
	ID            int64
	AmountCents   int64
	Description   string
	OccurredAt    string
	Type          string
	CategoryID    sql.NullInt64
	CategoryName  sql.NullString
	CategoryColor sql.NullString
}

type CategoryTotalRow struct {
	CategoryID  int64
	Name        string
	Color       string
	TotalAmount int64
}

type BudgetRow struct {
	ID          int64
	CategoryID  int64
	Year        int64
	Month       int64
	AmountCents int64
}

const countCategories = `SELECT COUNT(*) FROM categories`

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCategories)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createCategory = `INSERT INTO categories (name, color) VALUES (?, ?)
RETURNING id, name, color`

type CreateCategoryParams struct {
	Name  string
	Color string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory, arg.Name, arg.Color)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Color)
	return i, err
}

const listCategories = `SELECT id, name, color FROM categories ORDER BY id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Color); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategory = `SELECT id, name, color FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Color)
	return i, err
}

const createTransaction = `INSERT INTO transactions (amount_cents, description, occurred_at, type, category_id)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

type CreateTransactionParams struct {
	AmountCents int64
	Description string
	OccurredAt  string
	Type        string
	CategoryID  sql.NullInt64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.AmountCents,
		arg.Description,
		arg.OccurredAt,
		arg.Type,
		arg.CategoryID,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const transactionColumns = `t.id, t.amount_cents, t.description, t.occurred_at, t.type, t.category_id, c.name, c.color
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id`

const getTransaction = `SELECT ` + transactionColumns + `
WHERE t.id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i TransactionRow
	err := row.Scan(
		&i.ID,
		&i.AmountCents,
		&i.Description,
		&i.OccurredAt,
		&i.Type,
		&i.CategoryID,
		&i.CategoryName,
		&i.CategoryColor,
	)
	return i, err
}

// A negative limit returns every row.
const listTransactions = `SELECT ` + transactionColumns + `
ORDER BY t.occurred_at DESC, t.id DESC
LIMIT ?`

func (q *Queries) ListTransactions(ctx context.Context, limit int64) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.AmountCents,
			&i.Description,
			&i.OccurredAt,
			&i.Type,
			&i.CategoryID,
			&i.CategoryName,
			&i.CategoryColor,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumByType = `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE type = ?`

func (q *Queries) SumByType(ctx context.Context, txType string) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumByType, txType)
	var total int64
	err := row.Scan(&total)
	return total, err
}

// Empty bounds disable the corresponding filter.
const getCategoryTotals = `SELECT c.id, c.name, c.color, SUM(t.amount_cents) AS total_amount
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.type = 'expense'
  AND (?1 = '' OR t.occurred_at >= ?1)
  AND (?2 = '' OR t.occurred_at < ?2)
GROUP BY c.id
ORDER BY c.id`

type GetCategoryTotalsParams struct {
	From string
	To   string
}

func (q *Queries) GetCategoryTotals(ctx context.Context, arg GetCategoryTotalsParams) ([]CategoryTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, getCategoryTotals, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryTotalRow
	for rows.Next() {
		var i CategoryTotalRow
		if err := rows.Scan(&i.CategoryID, &i.Name, &i.Color, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listBudgets = `SELECT id, category_id, year, month, amount_cents FROM budgets
WHERE year = ? AND month = ?
ORDER BY category_id`

type ListBudgetsParams struct {
	Year  int64
	Month int64
}

func (q *Queries) ListBudgets(ctx context.Context, arg ListBudgetsParams) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, arg.Year, arg.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetRow
	for rows.Next() {
		var i BudgetRow
		if err := rows.Scan(&i.ID, &i.CategoryID, &i.Year, &i.Month, &i.AmountCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertBudget = `INSERT INTO budgets (category_id, year, month, amount_cents)
VALUES (?, ?, ?, ?)
ON CONFLICT (category_id, year, month) DO UPDATE SET amount_cents = excluded.amount_cents`

type UpsertBudgetParams struct {
	CategoryID  int64
	Year        int64
	Month       int64
	AmountCents int64
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, arg.CategoryID, arg.Year, arg.Month, arg.AmountCents)
	return err
}

const copyBudgets = `INSERT INTO budgets (category_id, year, month, amount_cents)
SELECT category_id, ?3, ?4, amount_cents FROM budgets
WHERE year = ?1 AND month = ?2
ON CONFLICT (category_id, year, month) DO UPDATE SET amount_cents = excluded.amount_cents`

type CopyBudgetsParams struct {
	FromYear  int64
	FromMonth int64
	ToYear    int64
	ToMonth   int64
}

func (q *Queries) CopyBudgets(ctx context.Context, arg CopyBudgetsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, copyBudgets, arg.FromYear, arg.FromMonth, arg.ToYear, arg.ToMonth)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
