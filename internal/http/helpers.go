package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mybudget/internal/core"
	"mybudget/internal/log"
)

// dateLayout is the format of <input type="date"> values.
const dateLayout = "2006-01-02"

// parseDate parses a YYYY-MM-DD form value at noon local time, so the day
// survives conversion to UTC in either direction. Empty input means now.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d.Add(12 * time.Hour), nil
}

// formatMoney renders cents for display, e.g. "€1234.50" or "-€3.00".
func formatMoney(cents int64) string {
	if cents < 0 {
		return "-€" + core.FormatCents(-cents)
	}
	return "€" + core.FormatCents(cents)
}

// sanitizeInput removes control characters (except tab, LF, CR) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	return "req_" + uuid.NewString()
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v before touching the response so an encoding error can
// still produce a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("JSON encode failed", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes {"error": public}. The underlying error is only logged,
// and only for 5xx.
func writeError(w http.ResponseWriter, r *http.Request, status int, public string, err error) {
	if public == "" {
		public = http.StatusText(status)
	}
	if status >= 500 && err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	}
	writeJSON(w, status, errorResponse{Error: public})
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// monthName returns the English month name, or "" outside 1-12.
func monthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}
