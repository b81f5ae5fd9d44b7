package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"mybudget/internal/cache"
	"mybudget/internal/chart"
	"mybudget/internal/core"
	"mybudget/internal/log"
	"mybudget/internal/services"
	"mybudget/internal/storage"
)

type testApp struct {
	srv  *Server
	repo *storage.SQLiteRepository
	cats []core.Category
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	if _, err := repo.SeedCategories(ctx, core.DefaultCategories); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}

	stats := services.NewStatsService(repo, cache.NewLRUCache[core.PeriodStats](16, time.Minute))
	srv := NewServer(":0", Deps{
		Ledger:  services.NewLedgerService(repo, nil, stats),
		Stats:   stats,
		Budgets: services.NewBudgetService(repo, repo, repo),
		Ready:   repo.Ping,
		Logger:  log.New(log.Config{Level: slog.LevelError, Component: log.ComponentApp, Output: io.Discard}),
	})
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return &testApp{srv: srv, repo: repo, cats: cats}
}

func (a *testApp) do(t *testing.T, method, target string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (a *testApp) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return a.do(t, http.MethodPost, target, strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
}

func (a *testApp) addExpense(t *testing.T, cents int64, cat *int64) {
	t.Helper()
	_, err := a.repo.CreateTransaction(context.Background(), core.Transaction{
		Amount:      core.Money{Cents: cents},
		Description: "seeded",
		Date:        time.Now(),
		Type:        core.Expense,
		CategoryID:  cat,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := app.do(t, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s content type %q", path, ct)
		}
	}

	rr := app.do(t, http.MethodGet, "/readyz", nil, nil)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ready" || body.Checks["database"] != "ok" {
		t.Errorf("unexpected readiness: %+v", body)
	}
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	app := newTestApp(t)
	app.srv.ready = func(context.Context) error { return errors.New("database is locked") }

	rr := app.do(t, http.MethodGet, "/readyz", nil, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("body missing cause: %s", rr.Body.String())
	}
}

func TestDashboardRendersChartConfig(t *testing.T) {
	app := newTestApp(t)
	food := app.cats[0].ID
	app.addExpense(t, 2500, &food)

	rr := app.do(t, http.MethodGet, "/", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		`<canvas id="expensesChart">`,
		`id="expensesChart-config"`,
		`doughnut`,
		`Food`,
		`-€25.00`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not set")
	}
}

func TestDashboardWithoutExpensesHasNoConfig(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `<canvas id="expensesChart">`) {
		t.Error("dashboard must always declare the mount")
	}
	if strings.Contains(body, `id="expensesChart-config"`) {
		t.Error("no config expected without expenses")
	}
}

func TestOnlyDashboardDeclaresMount(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/add", "/history", "/budgets"} {
		rr := app.do(t, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if strings.Contains(rr.Body.String(), `id="expensesChart"`) {
			t.Errorf("%s should not declare the chart mount", path)
		}
	}
}

func TestCreateTransactionValidationAndSuccess(t *testing.T) {
	app := newTestApp(t)

	bad := []url.Values{
		{"type": {"expense"}, "amount": {"abc"}},
		{"type": {"expense"}, "amount": {"0"}},
		{"type": {"gift"}, "amount": {"10"}},
		{"type": {"expense"}, "amount": {"10"}, "date": {"14/03/2025"}},
		{"type": {"expense"}, "amount": {"10"}, "category_id": {"999"}},
		{"type": {"expense"}, "amount": {"10"}, "description": {strings.Repeat("x", 101)}},
	}
	for _, form := range bad {
		rr := app.postForm(t, "/add", form)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("form %v: status=%d, want 422", form, rr.Code)
		}
	}

	food := strconv.FormatInt(app.cats[0].ID, 10)
	rr := app.postForm(t, "/add", url.Values{
		"type":        {"expense"},
		"amount":      {"12,50"},
		"description": {"Lunch"},
		"category_id": {food},
	})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}

	history := app.do(t, http.MethodGet, "/history", nil, nil).Body.String()
	if !strings.Contains(history, "Lunch") || !strings.Contains(history, "-€12.50") {
		t.Errorf("history missing created transaction")
	}
}

func TestCreateTransactionHTMXAndJSON(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodPost, "/add", strings.NewReader("type=income&amount=100"), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
		"HX-Request":   "true",
	})
	if rr.Code != http.StatusOK || rr.Header().Get("HX-Redirect") != "/" {
		t.Fatalf("htmx: status=%d redirect=%q", rr.Code, rr.Header().Get("HX-Redirect"))
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "transaction:created") {
		t.Errorf("htmx: missing trigger: %q", rr.Header().Get("HX-Trigger"))
	}

	rr = app.do(t, http.MethodPost, "/add", strings.NewReader(`{"type":"expense","amount":3.5}`), map[string]string{
		"Content-Type": "application/json",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("json: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created map[string]int64
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil || created["id"] == 0 {
		t.Fatalf("json: body=%s err=%v", rr.Body.String(), err)
	}

	rr = app.do(t, http.MethodPost, "/add", strings.NewReader(`{"type":"expense","amount":"-1"}`), map[string]string{
		"Content-Type": "application/json",
	})
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), `"error"`) {
		t.Fatalf("json invalid: status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	app := newTestApp(t)
	food, bills := app.cats[0].ID, app.cats[3].ID
	app.addExpense(t, 1000, &bills)
	app.addExpense(t, 2550, &food)
	app.addExpense(t, 4200, nil)

	rr := app.do(t, http.MethodGet, "/api/stats/month", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp chart.MonthlyStatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if strings.Join(resp.Labels, ",") != "Food,Bills" {
		t.Errorf("labels = %v", resp.Labels)
	}
	if len(resp.Data) != 2 || resp.Data[0] != 25.5 || resp.Data[1] != 10 {
		t.Errorf("data = %v", resp.Data)
	}
	if strings.Join(resp.Colors, ",") != "#FF6384,#4BC0C0" {
		t.Errorf("colors = %v", resp.Colors)
	}

	for _, p := range []string{"year", "all"} {
		if rr := app.do(t, http.MethodGet, "/api/stats/"+p, nil, nil); rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", p, rr.Code)
		}
	}
}

func TestStatsEndpointEmptyAndUnknown(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/api/stats/month", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"labels":[],"data":[],"colors":[]}` {
		t.Errorf("empty stats body = %s", got)
	}

	rr = app.do(t, http.MethodGet, "/api/stats/week", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown period status=%d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"error":"unknown period"}` {
		t.Errorf("unknown period body = %s", got)
	}
}

func TestStatsCacheInvalidatedOnCreate(t *testing.T) {
	app := newTestApp(t)
	food := strconv.FormatInt(app.cats[0].ID, 10)

	if rr := app.do(t, http.MethodGet, "/api/stats/month", nil, nil); !strings.Contains(rr.Body.String(), `"labels":[]`) {
		t.Fatalf("expected empty stats first: %s", rr.Body.String())
	}
	app.postForm(t, "/add", url.Values{"type": {"expense"}, "amount": {"5"}, "category_id": {food}})

	rr := app.do(t, http.MethodGet, "/api/stats/month", nil, nil)
	if !strings.Contains(rr.Body.String(), `"Food"`) {
		t.Errorf("stale stats after create: %s", rr.Body.String())
	}
}

func TestBudgetsSaveAndCopy(t *testing.T) {
	app := newTestApp(t)
	food := app.cats[0].ID
	field := "budget_" + strconv.FormatInt(food, 10)

	rr := app.postForm(t, "/budgets", url.Values{"month": {"12"}, "year": {"2029"}, field: {"300"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/budgets?month=12&year=2029" {
		t.Errorf("save redirect = %q", loc)
	}

	page := app.do(t, http.MethodGet, "/budgets?month=12&year=2029", nil, nil).Body.String()
	if !strings.Contains(page, `value="300.00"`) || !strings.Contains(page, "December 2029") {
		t.Errorf("budget page missing saved value")
	}

	// January has no budgets: the page pre-fills December's values
	page = app.do(t, http.MethodGet, "/budgets?month=1&year=2030", nil, nil).Body.String()
	if !strings.Contains(page, `value="300.00"`) || !strings.Contains(page, "Values from the previous month are shown") {
		t.Errorf("january page should be pre-filled from december")
	}

	rr = app.postForm(t, "/budgets/copy", url.Values{"month": {"1"}, "year": {"2030"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/budgets?month=1&year=2030" {
		t.Fatalf("copy status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}
	jan, err := app.repo.ListBudgets(context.Background(), 2030, 1)
	if err != nil || len(jan) != 1 || jan[0].Amount.Cents != 30000 {
		t.Fatalf("copied budgets = %+v err=%v", jan, err)
	}
}

func TestBudgetsRejectInvalidInput(t *testing.T) {
	app := newTestApp(t)

	if rr := app.do(t, http.MethodGet, "/budgets?month=13", nil, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid month status=%d", rr.Code)
	}
	if rr := app.postForm(t, "/budgets", url.Values{"month": {"1"}, "year": {"2030"}, "budget_999": {"10"}}); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown category status=%d", rr.Code)
	}
	if rr := app.postForm(t, "/budgets", url.Values{"month": {"1"}, "year": {"2030"}, "budget_1": {"ten"}}); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad amount status=%d", rr.Code)
	}
	if rr := app.postForm(t, "/budgets/copy", url.Values{"month": {"0"}, "year": {"2030"}}); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("copy invalid month status=%d", rr.Code)
	}
}

func TestMethodAndRouteMatching(t *testing.T) {
	app := newTestApp(t)

	if rr := app.do(t, http.MethodDelete, "/add", nil, nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /add status=%d", rr.Code)
	}
	if rr := app.do(t, http.MethodGet, "/nope", nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("GET /nope status=%d", rr.Code)
	}
	if rr := app.do(t, http.MethodGet, "/static/js/main.js", nil, nil); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Error fetching stats:") {
		t.Errorf("static main.js status=%d", rr.Code)
	}
}

func TestRateLimitOnPost(t *testing.T) {
	app := newTestApp(t)
	app.srv.rateLimiter.limit = 2

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := app.postForm(t, "/budgets", url.Values{"month": {"1"}, "year": {"2030"}})
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusSeeOther || codes[1] != http.StatusSeeOther || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// GETs are never limited
	if rr := app.do(t, http.MethodGet, "/healthz", nil, nil); rr.Code != http.StatusOK {
		t.Errorf("GET after limit status=%d", rr.Code)
	}
}

func TestCreateTransactionWithoutTypeIsExpense(t *testing.T) {
	app := newTestApp(t)
	food := strconv.FormatInt(app.cats[0].ID, 10)

	rr := app.postForm(t, "/add", url.Values{"amount": {"100.00"}, "description": {"Groceries"}, "category_id": {food}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	ts, err := app.repo.ListTransactions(context.Background(), 0)
	if err != nil || len(ts) != 1 {
		t.Fatalf("transactions = %v, err = %v", ts, err)
	}
	if ts[0].Type != core.Expense || ts[0].Amount.Cents != 10000 {
		t.Errorf("stored %+v, want a 100.00 expense", ts[0])
	}

	rr = app.do(t, http.MethodPost, "/add", strings.NewReader(`{"amount":"2"}`), map[string]string{"Content-Type": "application/json"})
	if rr.Code != http.StatusCreated {
		t.Errorf("json without type: status=%d", rr.Code)
	}
}

func (a *testApp) onlyTransactionID(t *testing.T) int64 {
	t.Helper()
	ts, err := a.repo.ListTransactions(context.Background(), 0)
	if err != nil || len(ts) != 1 {
		t.Fatalf("transactions = %v, err = %v", ts, err)
	}
	return ts[0].ID
}

func TestDeleteTransactionFromHistory(t *testing.T) {
	app := newTestApp(t)
	app.addExpense(t, 100, nil)
	id := app.onlyTransactionID(t)
	path := "/transactions/" + strconv.FormatInt(id, 10) + "/delete"

	if history := app.do(t, http.MethodGet, "/history", nil, nil).Body.String(); !strings.Contains(history, path) {
		t.Fatalf("history has no delete action for %d", id)
	}

	rr := app.postForm(t, path, url.Values{})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != historyDeletedPath {
		t.Fatalf("status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}

	history := app.do(t, http.MethodGet, historyDeletedPath, nil, nil).Body.String()
	if !strings.Contains(history, "Transaction deleted") {
		t.Error("missing deleted notice")
	}
	if strings.Contains(history, path) {
		t.Error("deleted transaction still listed")
	}
	if plain := app.do(t, http.MethodGet, "/history", nil, nil).Body.String(); strings.Contains(plain, "Transaction deleted") {
		t.Error("notice shown without a delete")
	}

	if rr := app.postForm(t, path, url.Values{}); rr.Code != http.StatusNotFound {
		t.Errorf("second delete status=%d, want 404", rr.Code)
	}
	if rr := app.postForm(t, "/transactions/abc/delete", url.Values{}); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id status=%d, want 400", rr.Code)
	}
}

func TestDeleteTransactionHTMXAndAPI(t *testing.T) {
	app := newTestApp(t)
	app.addExpense(t, 100, nil)
	id := strconv.FormatInt(app.onlyTransactionID(t), 10)

	rr := app.do(t, http.MethodPost, "/transactions/"+id+"/delete", nil, map[string]string{"HX-Request": "true"})
	if rr.Code != http.StatusOK || rr.Header().Get("HX-Redirect") != historyDeletedPath {
		t.Fatalf("htmx: status=%d redirect=%q", rr.Code, rr.Header().Get("HX-Redirect"))
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "transaction:deleted") {
		t.Errorf("htmx: missing trigger: %q", rr.Header().Get("HX-Trigger"))
	}

	app.addExpense(t, 200, nil)
	id = strconv.FormatInt(app.onlyTransactionID(t), 10)
	if rr := app.do(t, http.MethodDelete, "/transactions/"+id, nil, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("api: status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = app.do(t, http.MethodDelete, "/transactions/"+id, nil, nil)
	if rr.Code != http.StatusNotFound || strings.TrimSpace(rr.Body.String()) != `{"error":"transaction not found"}` {
		t.Errorf("api missing: status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStatsCacheInvalidatedOnDelete(t *testing.T) {
	app := newTestApp(t)
	food := strconv.FormatInt(app.cats[0].ID, 10)
	app.postForm(t, "/add", url.Values{"amount": {"5"}, "category_id": {food}})

	if rr := app.do(t, http.MethodGet, "/api/stats/month", nil, nil); !strings.Contains(rr.Body.String(), `"Food"`) {
		t.Fatalf("expected Food in stats: %s", rr.Body.String())
	}

	id := strconv.FormatInt(app.onlyTransactionID(t), 10)
	app.postForm(t, "/transactions/"+id+"/delete", url.Values{})

	rr := app.do(t, http.MethodGet, "/api/stats/month", nil, nil)
	if got := strings.TrimSpace(rr.Body.String()); got != `{"labels":[],"data":[],"colors":[]}` {
		t.Errorf("stale stats after delete: %s", got)
	}
}

type failingBalanceLedger struct{ Ledger }

func (failingBalanceLedger) Balance(context.Context) (core.Balance, error) {
	return core.Balance{}, errors.New("balance query failed")
}

// slowStats answers after a short delay unless its context ends first.
type slowStats struct{ Stats }

func (s slowStats) PeriodStats(ctx context.Context, p core.Period) (core.PeriodStats, error) {
	select {
	case <-ctx.Done():
		return core.PeriodStats{}, ctx.Err()
	case <-time.After(50 * time.Millisecond):
		return s.Stats.PeriodStats(ctx, p)
	}
}

func TestDashboardFailureDoesNotCancelChart(t *testing.T) {
	app := newTestApp(t)
	var logs bytes.Buffer
	srv := NewServer(":0", Deps{
		Ledger: failingBalanceLedger{app.srv.ledger},
		Stats:  slowStats{app.srv.stats},
		Ready:  app.repo.Ping,
		Logger: log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentApp, Output: &logs}),
	})
	t.Cleanup(func() { srv.rateLimiter.stop() })

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(logs.String(), "Dashboard load failed") {
		t.Errorf("missing dashboard error log: %s", logs.String())
	}
	if strings.Contains(logs.String(), chart.FetchErrorMessage) {
		t.Errorf("chart logged a failure caused by the dashboard error: %s", logs.String())
	}
}
