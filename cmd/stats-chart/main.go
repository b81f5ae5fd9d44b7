// Command stats-chart fetches the current month's expense statistics from a
// running mybudget server and prints the doughnut chart configuration the
// dashboard would draw.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mybudget/internal/chart"
	"mybudget/internal/cli"
	"mybudget/internal/log"
)

var errRenderFailed = errors.New("chart initialization failed")

type options struct {
	baseURL  string
	out      string
	timeout  time.Duration
	logLevel string
}

// newRootCommand writes the chart config to stdout and logs to stderr, so
// the output stays parseable at any log level.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "stats-chart",
		Short:         "Print the month expenses chart config",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://localhost:8081", "mybudget server address")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the chart config to this file instead of stdout")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	return cmd
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	logger := cli.SetupLogger(log.ComponentChart, opts.logLevel, stderr)

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	renderer := chart.NewRenderer(
		chart.NewMounts(chart.MountID),
		chart.NewClient(opts.baseURL, &http.Client{Timeout: opts.timeout}),
		chart.NewJSONWriter(w),
		logger.Slog(),
	)

	outcome := renderer.Initialize(ctx)
	logger.Info("Chart initialization finished", log.FieldOutcome, outcome.String(), "base_url", opts.baseURL)
	if outcome == chart.Failed {
		return errRenderFailed
	}
	return nil
}

func main() {
	cli.LoadEnvFile()

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Stderr.WriteString("stats-chart: " + err.Error() + "\n")
		os.Exit(1)
	}
}
