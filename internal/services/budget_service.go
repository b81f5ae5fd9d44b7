package services

import (
	"context"
	"fmt"
	"time"

	"mybudget/internal/core"
	"mybudget/internal/log"
)

// BudgetLine is one category row of the budget grid.
type BudgetLine struct {
	Category core.Category
	Amount   core.Money
	HasValue bool
	Spent    core.Money
}

type BudgetGrid struct {
	Year, Month int
	Lines       []BudgetLine
	// Prefilled is set when the month had no budgets and the amounts come
	// from the previous month.
	Prefilled bool
}

type BudgetService struct {
	categories CategoryStore
	budgets    BudgetStore
	totals     TotalsStore
}

func NewBudgetService(categories CategoryStore, budgets BudgetStore, totals TotalsStore) *BudgetService {
	return &BudgetService{categories: categories, budgets: budgets, totals: totals}
}

// Grid lists every category with its budget and spending for the month.
func (s *BudgetService) Grid(ctx context.Context, year, month int) (BudgetGrid, error) {
	if err := (core.Budget{Year: year, Month: month}).Validate(); err != nil {
		return BudgetGrid{}, err
	}

	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return BudgetGrid{}, err
	}

	budgets, err := s.budgets.ListBudgets(ctx, year, month)
	if err != nil {
		return BudgetGrid{}, err
	}
	grid := BudgetGrid{Year: year, Month: month}
	if len(budgets) == 0 {
		py, pm := core.PreviousMonth(year, month)
		if budgets, err = s.budgets.ListBudgets(ctx, py, pm); err != nil {
			return BudgetGrid{}, err
		}
		grid.Prefilled = len(budgets) > 0
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	totals, err := s.totals.CategoryTotals(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return BudgetGrid{}, err
	}

	byCategory := make(map[int64]core.Money, len(budgets))
	for _, b := range budgets {
		byCategory[b.CategoryID] = b.Amount
	}
	spent := make(map[int64]core.Money, len(totals))
	for _, t := range totals {
		spent[t.CategoryID] = t.Amount
	}

	grid.Lines = make([]BudgetLine, len(cats))
	for i, c := range cats {
		amount, ok := byCategory[c.ID]
		grid.Lines[i] = BudgetLine{Category: c, Amount: amount, HasValue: ok, Spent: spent[c.ID]}
	}
	return grid, nil
}

// Save upserts the given per-category amounts for the month. Every category
// id must exist.
func (s *BudgetService) Save(ctx context.Context, year, month int, amounts map[int64]core.Money) error {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return err
	}
	known := make(map[int64]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}

	budgets := make([]core.Budget, 0, len(amounts))
	for id, amount := range amounts {
		if !known[id] {
			return fmt.Errorf("%w: %d", ErrUnknownCategory, id)
		}
		b := core.Budget{CategoryID: id, Year: year, Month: month, Amount: amount}
		if err := b.Validate(); err != nil {
			return err
		}
		budgets = append(budgets, b)
	}
	if len(budgets) == 0 {
		return nil
	}

	if err := s.budgets.SaveBudgets(ctx, budgets); err != nil {
		return err
	}
	log.ForComponent(log.ComponentBudget).InfoContext(ctx, "Budgets saved",
		log.FieldOperation, log.OpSave,
		log.FieldYear, year, log.FieldMonth, month,
		"count", len(budgets))
	return nil
}

// CopyPrevious copies the previous month's budgets into (year, month),
// overwriting existing ones, and returns how many were copied.
func (s *BudgetService) CopyPrevious(ctx context.Context, year, month int) (int64, error) {
	if err := (core.Budget{Year: year, Month: month}).Validate(); err != nil {
		return 0, err
	}
	py, pm := core.PreviousMonth(year, month)
	n, err := s.budgets.CopyBudgets(ctx, py, pm, year, month)
	if err != nil {
		return 0, err
	}
	log.ForComponent(log.ComponentBudget).InfoContext(ctx, "Budgets copied",
		log.FieldOperation, log.OpCopy,
		"from_year", py, "from_month", pm,
		"year", year, "month", month,
		"count", n)
	return n, nil
}
