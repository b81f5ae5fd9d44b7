package chart

import (
	"context"
	"log/slog"
)

// FetchErrorMessage prefixes the single diagnostic entry written when the
// stats request, its decoding or the chart construction fails.
const FetchErrorMessage = "Error fetching stats:"

type (
	// Element is a node a chart can be bound to.
	Element interface {
		ID() string
	}

	// Document resolves mount elements by id.
	Document interface {
		ElementByID(id string) (Element, bool)
	}

	// StatsFetcher retrieves the current month's statistics.
	StatsFetcher interface {
		FetchMonthStats(ctx context.Context) (MonthlyStatsResponse, error)
	}

	// Factory constructs a chart bound to mount.
	Factory interface {
		NewChart(mount Element, cfg Config) error
	}
)

// FetcherFunc adapts a function to StatsFetcher.
type FetcherFunc func(ctx context.Context) (MonthlyStatsResponse, error)

func (f FetcherFunc) FetchMonthStats(ctx context.Context) (MonthlyStatsResponse, error) {
	return f(ctx)
}

// Outcome is the terminal state reached by Initialize.
type Outcome int

const (
	// NoMount: the document has no chart mount, nothing was requested.
	NoMount Outcome = iota
	// NoData: the response carried an empty series, no chart was drawn.
	NoData
	// Rendered: one chart was constructed.
	Rendered
	// Failed: the failure was logged and swallowed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NoMount:
		return "no_mount"
	case NoData:
		return "no_data"
	case Rendered:
		return "rendered"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Renderer bridges one stats fetch to one chart construction.
type Renderer struct {
	doc     Document
	fetcher StatsFetcher
	factory Factory
	logger  *slog.Logger
}

// NewRenderer wires a renderer. A nil logger means slog.Default().
func NewRenderer(doc Document, fetcher StatsFetcher, factory Factory, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{doc: doc, fetcher: fetcher, factory: factory, logger: logger}
}

// Initialize runs the one-shot fetch-then-render sequence. The host calls it
// once its document is ready. Failures never escape: they are logged once
// and reported only through the returned Outcome.
func (r *Renderer) Initialize(ctx context.Context) Outcome {
	mount, ok := r.doc.ElementByID(MountID)
	if !ok {
		return NoMount
	}

	resp, err := r.fetcher.FetchMonthStats(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, FetchErrorMessage, "error", err)
		return Failed
	}

	if len(resp.Data) == 0 {
		return NoData
	}

	if err := r.factory.NewChart(mount, Doughnut(resp)); err != nil {
		r.logger.ErrorContext(ctx, FetchErrorMessage, "error", err, "mount", mount.ID())
		return Failed
	}
	return Rendered
}
