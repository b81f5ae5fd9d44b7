package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mybudget/internal/amqp"
	"mybudget/internal/core"
	"mybudget/internal/log"
	"mybudget/internal/sheets"
)

type TransactionGetter interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
}

// ExportWorker copies committed transactions to the spreadsheet, one event at a time.
type ExportWorker struct {
	store    TransactionGetter
	exporter sheets.TransactionExporter
	logger   *slog.Logger
}

func NewExportWorker(store TransactionGetter, exporter sheets.TransactionExporter, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{store: store, exporter: exporter, logger: logger}
}

// HandleTransactionCreated exports the transaction named by msg. A returned
// error requeues the message. Transactions that no longer exist are skipped.
func (w *ExportWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	w.logger.InfoContext(ctx, "Processing transaction event", "id", msg.ID, "published_at", msg.Timestamp)

	t, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction not found, skipping export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.exporter.AppendTransaction(ctx, t)
	if err != nil {
		return fmt.Errorf("export transaction %d: %w", t.ID, err)
	}

	w.logger.InfoContext(ctx, "Transaction exported to sheet", log.FieldOperation, log.OpExport, "id", t.ID, "ref", ref)
	return nil
}
