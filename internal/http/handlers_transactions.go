package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mybudget/internal/core"
	"mybudget/internal/log"
	"mybudget/internal/services"
)

type addPage struct {
	Title      string
	Active     string
	Categories []core.Category
	Today      string
	Error      string
	// Form echoes the submitted values after a validation error.
	Form map[string]string
}

type historyPage struct {
	Title        string
	Active       string
	Notice       string
	Transactions []transactionRow
}

// historyDeletedPath is where a successful delete lands.
const historyDeletedPath = "/history?deleted=1"

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Category list error", log.FieldError, err)
		InternalServerError("Could not load categories").Write(w)
		return
	}
	s.render(w, r, "add.html", addPage{
		Title:      "Add transaction",
		Active:     "add",
		Categories: cats,
		Today:      s.now().Format(dateLayout),
	})
}

// handleCreateTransaction accepts form or JSON bodies. Plain form posts are
// answered with 303 to the dashboard; htmx requests get HX-Redirect instead.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentLedger)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse body error", log.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	t, err := s.transactionFromRequest(p)
	if err == nil {
		var id int64
		id, err = s.ledger.CreateTransaction(ctx, t)
		if err == nil {
			logger.InfoContext(ctx, "Transaction created",
				log.NewFields().WithTransaction(id, string(t.Type), t.Amount.Cents).ToSlice()...)
			s.transactionCreated(w, r, p, id, t)
			return
		}
	}

	if !isValidationError(err) {
		logger.ErrorContext(ctx, "Transaction create error", log.FieldError, err)
		InternalServerError("Could not save transaction").Write(w)
		return
	}

	logger.InfoContext(ctx, "Transaction rejected", log.FieldError, err)
	if p.IsJSON() {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error(), err)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	cats, cerr := s.ledger.Categories(ctx)
	if cerr != nil {
		logger.ErrorContext(ctx, "Category list error", log.FieldError, cerr)
	}
	s.renderStatus(w, r, http.StatusUnprocessableEntity, "add.html", addPage{
		Title:      "Add transaction",
		Active:     "add",
		Categories: cats,
		Today:      s.now().Format(dateLayout),
		Error:      err.Error(),
		Form: map[string]string{
			"type":        p.Get("type"),
			"amount":      p.Get("amount"),
			"description": p.Get("description"),
			"date":        p.Get("date"),
			"category_id": p.Get("category_id"),
		},
	})
}

func (s *Server) transactionCreated(w http.ResponseWriter, r *http.Request, p *RequestBodyParser, id int64, t core.Transaction) {
	switch {
	case p.IsJSON():
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	case r.Header.Get("HX-Request") == "true":
		NewHTMXResponse().
			TriggerTransactionCreated(id, string(t.Type)).
			TriggerSuccessNotification("Transaction saved").
			Redirect("/").
			Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) transactionFromRequest(p *RequestBodyParser) (core.Transaction, error) {
	// A missing type records an expense.
	txType := core.Expense
	if v := p.Get("type"); strings.TrimSpace(v) != "" {
		var err error
		if txType, err = core.ParseTransactionType(v); err != nil {
			return core.Transaction{}, err
		}
	}

	cents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}

	when, err := parseDate(p.Get("date"), s.now())
	if err != nil {
		return core.Transaction{}, errInvalidDate
	}

	t := core.Transaction{
		Amount:      core.Money{Cents: cents},
		Description: p.Get("description"),
		Date:        when,
		Type:        txType,
	}

	// An empty category means uncategorized.
	if v := p.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return core.Transaction{}, services.ErrUnknownCategory
		}
		t.CategoryID = &id
	}
	return t, nil
}

var errInvalidDate = errors.New("invalid date")

// isValidationError reports whether err is caused by user input.
func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrInvalidMonth,
		core.ErrInvalidYear,
		core.ErrDescriptionLong,
		core.ErrZeroDate,
		services.ErrUnknownCategory,
		errInvalidDate,
		errInvalidBudgetField,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ts, err := s.ledger.History(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "History list error", log.FieldError, err)
		InternalServerError("Could not load history").Write(w)
		return
	}
	page := historyPage{
		Title:        "History",
		Active:       "history",
		Transactions: newTransactionRows(ts),
	}
	if r.URL.Query().Get("deleted") != "" {
		page.Notice = "Transaction deleted"
	}
	s.render(w, r, "history.html", page)
}

// handleDeleteTransaction serves POST /transactions/{id}/delete from the
// history form and DELETE /transactions/{id} for API clients.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentLedger)
	api := r.Method == http.MethodDelete

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		if api {
			writeError(w, r, http.StatusBadRequest, "invalid transaction id", nil)
			return
		}
		BadRequestError("Invalid transaction id").Write(w)
		return
	}

	if err := s.ledger.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			logger.InfoContext(ctx, "Transaction to delete not found", log.FieldTransactionID, id)
			if api {
				writeError(w, r, http.StatusNotFound, "transaction not found", nil)
				return
			}
			ErrorResponse(http.StatusNotFound, "Transaction not found").Write(w)
			return
		}
		logger.ErrorContext(ctx, "Transaction delete error", log.FieldError, err, log.FieldTransactionID, id)
		if api {
			writeError(w, r, http.StatusInternalServerError, "", err)
			return
		}
		InternalServerError("Could not delete transaction").Write(w)
		return
	}

	logger.InfoContext(ctx, "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
	switch {
	case api:
		w.WriteHeader(http.StatusNoContent)
	case r.Header.Get("HX-Request") == "true":
		NewHTMXResponse().
			TriggerTransactionDeleted(id).
			TriggerSuccessNotification("Transaction deleted").
			Redirect(historyDeletedPath).
			Write(w)
	default:
		http.Redirect(w, r, historyDeletedPath, http.StatusSeeOther)
	}
}
