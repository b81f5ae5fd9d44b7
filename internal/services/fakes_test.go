package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mybudget/internal/core"
)

type budgetKey struct {
	cat         int64
	year, month int
}

// fakeStore is an in-memory stand-in for the SQLite repository.
type fakeStore struct {
	mu           sync.Mutex
	categories   []core.Category
	transactions []core.Transaction
	nextID       int64
	budgets      map[budgetKey]core.Money
	totals       []core.CategoryTotal
	totalsCalls  int
	lastFrom     time.Time
	lastTo       time.Time
	err          error
}

func newFakeStore() *fakeStore {
	s := &fakeStore{budgets: make(map[budgetKey]core.Money)}
	for i, c := range core.DefaultCategories {
		c.ID = int64(i + 1)
		s.categories = append(s.categories, c)
	}
	return s
}

func (s *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.nextID++
	t.ID = s.nextID
	s.transactions = append(s.transactions, t)
	return t.ID, nil
}

func (s *fakeStore) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
}

func (s *fakeStore) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
}

func (s *fakeStore) ListTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.transactions))
	for i := len(s.transactions) - 1; i >= 0; i-- {
		out = append(out, s.transactions[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) Balance(context.Context) (core.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b core.Balance
	for _, t := range s.transactions {
		if t.Type == core.Income {
			b.Income.Cents += t.Amount.Cents
		} else {
			b.Expenses.Cents += t.Amount.Cents
		}
	}
	return b, nil
}

func (s *fakeStore) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *fakeStore) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
}

func (s *fakeStore) CategoryTotals(_ context.Context, from, to time.Time) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalsCalls++
	s.lastFrom, s.lastTo = from, to
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.CategoryTotal(nil), s.totals...), nil
}

func (s *fakeStore) ListBudgets(_ context.Context, year, month int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for k, v := range s.budgets {
		if k.year == year && k.month == month {
			out = append(out, core.Budget{CategoryID: k.cat, Year: year, Month: month, Amount: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (s *fakeStore) SaveBudgets(_ context.Context, budgets []core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range budgets {
		s.budgets[budgetKey{b.CategoryID, b.Year, b.Month}] = b.Amount
	}
	return nil
}

func (s *fakeStore) CopyBudgets(_ context.Context, fy, fm, ty, tm int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, v := range s.budgets {
		if k.year == fy && k.month == fm {
			s.budgets[budgetKey{k.cat, ty, tm}] = v
			n++
		}
	}
	return n, nil
}

type fakePublisher struct {
	ids []int64
	err error
}

func (p *fakePublisher) PublishTransactionCreated(_ context.Context, id int64) error {
	p.ids = append(p.ids, id)
	return p.err
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }
