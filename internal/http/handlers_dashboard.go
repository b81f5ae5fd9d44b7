package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"mybudget/internal/chart"
	"mybudget/internal/core"
	"mybudget/internal/log"
)

// transactionRow is a transaction prepared for display.
type transactionRow struct {
	ID          int64
	Date        string
	Description string
	Category    string
	Color       string
	Amount      string
	Income      bool
}

func newTransactionRow(t core.Transaction) transactionRow {
	name, color := t.DisplayCategory()
	return transactionRow{
		ID:          t.ID,
		Date:        t.Date.Local().Format(dateLayout),
		Description: t.Description,
		Category:    name,
		Color:       color,
		Amount:      formatMoney(t.Signed()),
		Income:      t.Type == core.Income,
	}
}

func newTransactionRows(ts []core.Transaction) []transactionRow {
	rows := make([]transactionRow, len(ts))
	for i, t := range ts {
		rows[i] = newTransactionRow(t)
	}
	return rows
}

type dashboardPage struct {
	Title    string
	Active   string
	Balance  string
	Negative bool
	Income   string
	Expenses string
	Recent   []transactionRow
	MountID  string
	// Chart is nil when there is nothing to draw.
	Chart *chart.Config
}

// handleDashboard loads the balance, the recent transactions and the month
// chart concurrently. The chart is best effort: its failures are logged by
// the renderer and only leave the mount empty.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var (
		balance   core.Balance
		recent    []core.Transaction
		outcome   chart.Outcome
		collector = chart.NewCollector()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = s.ledger.Balance(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.ledger.Recent(gctx)
		return err
	})
	g.Go(func() error {
		renderer := chart.NewRenderer(
			chart.NewMounts(chart.MountID),
			chart.FetcherFunc(s.monthStats),
			collector,
			logger.WithComponent(log.ComponentChart).Slog(),
		)
		// Not gctx: a failing balance or list query must not show up as a
		// cancelled stats fetch.
		outcome = renderer.Initialize(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "Dashboard load failed", log.FieldError, err)
		InternalServerError("Could not load dashboard").Write(w)
		return
	}
	logger.DebugContext(ctx, "Chart initialized", log.FieldOutcome, outcome.String())

	page := dashboardPage{
		Title:    "Dashboard",
		Active:   "dashboard",
		Balance:  formatMoney(balance.Net()),
		Negative: balance.Net() < 0,
		Income:   formatMoney(balance.Income.Cents),
		Expenses: formatMoney(balance.Expenses.Cents),
		Recent:   newTransactionRows(recent),
		MountID:  chart.MountID,
	}
	if cfg, ok := collector.Chart(chart.MountID); ok {
		page.Chart = &cfg
	}
	s.render(w, r, "index.html", page)
}

// monthStats feeds the in-process renderer from the same service that backs
// /api/stats/month.
func (s *Server) monthStats(ctx context.Context) (chart.MonthlyStatsResponse, error) {
	ps, err := s.stats.PeriodStats(ctx, core.PeriodMonth)
	if err != nil {
		return chart.MonthlyStatsResponse{}, err
	}
	return chart.FromPeriodStats(ps), nil
}
