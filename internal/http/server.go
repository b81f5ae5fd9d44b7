package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"mybudget/internal/core"
	"mybudget/internal/log"
	"mybudget/internal/services"
	appweb "mybudget/web"
)

// Ledger is the transaction side of the UI.
type Ledger interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	DeleteTransaction(ctx context.Context, id int64) error
	Recent(ctx context.Context) ([]core.Transaction, error)
	History(ctx context.Context) ([]core.Transaction, error)
	Balance(ctx context.Context) (core.Balance, error)
	Categories(ctx context.Context) ([]core.Category, error)
}

// Stats serves aggregated expense totals.
type Stats interface {
	PeriodStats(ctx context.Context, p core.Period) (core.PeriodStats, error)
}

// Budgets backs the monthly budget grid.
type Budgets interface {
	Grid(ctx context.Context, year, month int) (services.BudgetGrid, error)
	Save(ctx context.Context, year, month int, amounts map[int64]core.Money) error
	CopyPrevious(ctx context.Context, year, month int) (int64, error)
}

// Deps are the collaborators of the server. Ready and Logger may be nil.
type Deps struct {
	Ledger  Ledger
	Stats   Stats
	Budgets Budgets
	// Ready is consulted by /readyz, typically the database ping.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
	// RequestsPerMinute limits POST and DELETE requests per client; 0 means 60.
	RequestsPerMinute int
}

type Server struct {
	http.Server
	templates   *template.Template
	ledger      Ledger
	stats       Stats
	budgets     Budgets
	ready       func(ctx context.Context) error
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	started     time.Time
	now         func() time.Time

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"money": formatMoney,
	"amount": func(m core.Money) string {
		return core.FormatCents(m.Cents)
	},
	"date": func(t time.Time) string {
		return t.Local().Format(dateLayout)
	},
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		ledger:      deps.Ledger,
		stats:       deps.Stats,
		budgets:     deps.Budgets,
		ready:       deps.Ready,
		logger:      logger,
		rateLimiter: newRateLimiter(deps.RequestsPerMinute),
		metrics:     &securityMetrics{},
		started:     time.Now(),
		now:         time.Now,
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /add", s.handleAddForm)
	mux.HandleFunc("POST /add", s.handleCreateTransaction)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("POST /transactions/{id}/delete", s.handleDeleteTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/stats/{period}", s.handleStats)
	mux.HandleFunc("GET /budgets", s.handleBudgets)
	mux.HandleFunc("POST /budgets", s.handleSaveBudgets)
	mux.HandleFunc("POST /budgets/copy", s.handleCopyBudgets)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var handler http.Handler = mux
	handler = s.withSecurityHeaders(handler)
	handler = log.RequestLogger(extractClientIP)(handler)
	handler = log.Middleware(logger, requestID)(handler)
	s.Handler = handler

	return s
}

// requestID reuses a sane inbound X-Request-ID, otherwise mints one.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" && len(id) <= 64 && sanitizeInput(id) == id {
		return id
	}
	return generateRequestID()
}

// withSecurityHeaders adds security headers and rate limits writes.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		logger := log.FromContext(r.Context())

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		if (r.Method == http.MethodPost || r.Method == http.MethodDelete) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		setSecurityHeaders(w.Header())
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Stopping HTTP server", "uptime", time.Since(s.started).Round(time.Second).String())
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	s.renderStatus(w, r, http.StatusOK, name, data)
}

// renderStatus executes a page template into a buffer so a failure can still
// produce a clean 500.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
