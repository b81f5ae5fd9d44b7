package services

import (
	"context"
	"fmt"
	"time"

	"mybudget/internal/cache"
	"mybudget/internal/core"
)

// StatsService serves per-category expense totals, cached per period window.
type StatsService struct {
	store TotalsStore
	cache cache.Cache[core.PeriodStats]
	now   func() time.Time
}

// NewStatsService wires the service. A nil cache disables caching.
func NewStatsService(store TotalsStore, c cache.Cache[core.PeriodStats]) *StatsService {
	return &StatsService{store: store, cache: c, now: time.Now}
}

// PeriodStats returns the totals for the window of p containing now.
func (s *StatsService) PeriodStats(ctx context.Context, p core.Period) (core.PeriodStats, error) {
	from, to := p.Range(s.now())
	// the window start keeps a cached month from leaking into the next one
	key := string(p) + ":" + from.Format("2006-01-02")

	if s.cache != nil {
		if stats, ok := s.cache.Get(key); ok {
			return stats, nil
		}
	}

	totals, err := s.store.CategoryTotals(ctx, from, to)
	if err != nil {
		return core.PeriodStats{}, fmt.Errorf("%s stats: %w", p, err)
	}
	stats := core.PeriodStats{Period: p, From: from, To: to, Totals: totals}

	if s.cache != nil {
		s.cache.Set(key, stats)
	}
	return stats, nil
}

// Invalidate drops every cached window.
func (s *StatsService) Invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
