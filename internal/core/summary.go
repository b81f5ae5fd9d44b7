package core

import (
	"strings"
	"time"
)

// CategoryTotal is the expense total of one category over a period.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Color      string
	Amount     Money
}

// PeriodStats is the per-category expense breakdown for a period.
type PeriodStats struct {
	Period Period
	From   time.Time
	To     time.Time
	Totals []CategoryTotal
}

// Balance summarises all-time income against expenses.
type Balance struct {
	Income   Money
	Expenses Money
}

func (b Balance) Net() int64 {
	return b.Income.Cents - b.Expenses.Cents
}

// Period names an aggregation window relative to the current time.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts month, year and all.
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodMonth, PeriodYear, PeriodAll:
		return p, true
	}
	return "", false
}

// Range returns the half-open [from, to) window of p containing now.
// PeriodAll yields zero times, meaning unbounded.
func (p Period) Range(now time.Time) (from, to time.Time) {
	y, m, _ := now.Date()
	loc := now.Location()
	switch p {
	case PeriodMonth:
		from = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0)
	case PeriodYear:
		from = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(1, 0, 0)
	}
	return time.Time{}, time.Time{}
}

// PreviousMonth returns the month before (year, month), wrapping January.
func PreviousMonth(year, month int) (int, int) {
	if month <= 1 {
		return year - 1, 12
	}
	return year, month - 1
}
