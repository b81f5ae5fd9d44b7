package http

import (
	"net/http"

	"mybudget/internal/chart"
	"mybudget/internal/core"
	"mybudget/internal/log"
)

// handleStats serves GET /api/stats/{period} as a chart.MonthlyStatsResponse.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	period, ok := core.ParsePeriod(r.PathValue("period"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown period", nil)
		return
	}

	ps, err := s.stats.PeriodStats(r.Context(), period)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "", err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentStats).DebugContext(r.Context(), "Stats served",
		log.FieldPeriod, string(period),
		"categories", len(ps.Totals))
	writeJSON(w, http.StatusOK, chart.FromPeriodStats(ps))
}
