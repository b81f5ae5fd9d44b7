package http

import (
	"net/http"

	"mybudget/internal/core"
	"mybudget/internal/log"
	"mybudget/internal/services"
)

type budgetRow struct {
	Field    string
	Name     string
	Color    string
	Value    string
	Spent    string
	Over     bool
	HasValue bool
}

type budgetsPage struct {
	Title     string
	Active    string
	Year      int
	Month     int
	MonthName string
	Prefilled bool
	Rows      []budgetRow
	Total     string
	Error     string
}

func newBudgetsPage(grid services.BudgetGrid) budgetsPage {
	page := budgetsPage{
		Title:     "Budgets",
		Active:    "budgets",
		Year:      grid.Year,
		Month:     grid.Month,
		MonthName: monthName(grid.Month),
		Prefilled: grid.Prefilled,
		Rows:      make([]budgetRow, len(grid.Lines)),
	}
	var total int64
	for i, line := range grid.Lines {
		row := budgetRow{
			Field:    budgetFieldPrefix + formatID(line.Category.ID),
			Name:     line.Category.Name,
			Color:    line.Category.Color,
			Spent:    formatMoney(line.Spent.Cents),
			HasValue: line.HasValue,
		}
		if line.HasValue {
			row.Value = core.FormatCents(line.Amount.Cents)
			row.Over = line.Spent.Cents > line.Amount.Cents
			total += line.Amount.Cents
		}
		page.Rows[i] = row
	}
	page.Total = formatMoney(total)
	return page
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	params := ParseMonthParams(r.URL.Query(), s.now())
	grid, err := s.budgets.Grid(r.Context(), params.Year, params.Month)
	if err != nil {
		if isValidationError(err) {
			BadRequestError(err.Error()).Write(w)
			return
		}
		log.FromContext(r.Context()).WithComponent(log.ComponentBudget).ErrorContext(r.Context(), "Budget grid error",
			log.NewFields().WithMonth(params.Year, params.Month).WithError(err).ToSlice()...)
		InternalServerError("Could not load budgets").Write(w)
		return
	}
	s.render(w, r, "budgets.html", newBudgetsPage(grid))
}

// handleSaveBudgets stores the budget_{id} fields and redirects back to the
// same month.
func (s *Server) handleSaveBudgets(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentBudget)
	params := ParseMonthParams(r.PostForm, s.now())

	amounts, err := ParseBudgetFields(r.PostForm)
	if err == nil {
		err = s.budgets.Save(ctx, params.Year, params.Month, amounts)
	}
	if err != nil {
		if isValidationError(err) {
			logger.InfoContext(ctx, "Budgets rejected", log.NewFields().WithMonth(params.Year, params.Month).WithError(err).ToSlice()...)
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Budget save error", log.NewFields().WithMonth(params.Year, params.Month).WithError(err).ToSlice()...)
		InternalServerError("Could not save budgets").Write(w)
		return
	}

	s.backToBudgets(w, r, params, func(b *HTMXResponseBuilder) {
		b.TriggerBudgetsSaved(params.Year, params.Month).TriggerSuccessNotification("Budgets saved")
	})
}

// handleCopyBudgets copies the previous month's budgets into the selected one.
func (s *Server) handleCopyBudgets(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	params := ParseMonthParams(r.PostForm, s.now())

	n, err := s.budgets.CopyPrevious(ctx, params.Year, params.Month)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		log.FromContext(ctx).WithComponent(log.ComponentBudget).ErrorContext(ctx, "Budget copy error",
			log.NewFields().WithMonth(params.Year, params.Month).WithError(err).ToSlice()...)
		InternalServerError("Could not copy budgets").Write(w)
		return
	}

	s.backToBudgets(w, r, params, func(b *HTMXResponseBuilder) {
		b.TriggerBudgetsSaved(params.Year, params.Month)
		if n == 0 {
			b.TriggerNotification(NotificationError, "No budgets to copy from the previous month", 5000)
		}
	})
}

func (s *Server) backToBudgets(w http.ResponseWriter, r *http.Request, params MonthParams, decorate func(*HTMXResponseBuilder)) {
	target := "/budgets?" + params.Query()
	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	b := NewHTMXResponse().Redirect(target)
	decorate(b)
	b.Write(w)
}
