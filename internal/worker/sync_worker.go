package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finadvisor/internal/amqp"
	"finadvisor/internal/core"
	"finadvisor/internal/ledger"
	"finadvisor/internal/storage"

	"golang.org/x/sync/errgroup"
)

// SyncStore is the slice of the SQLite repository the worker needs.
type SyncStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id int64, ref string) error
	MarkSyncError(ctx context.Context, id int64) error

	GetReport(ctx context.Context, id int64) (core.Report, error)
	GetPendingReportExports(ctx context.Context, limit int) ([]core.Report, error)
	MarkReportExported(ctx context.Context, id int64, ref string) error
	MarkReportExportError(ctx context.Context, id int64) error
}

var _ SyncStore = (*storage.SQLiteRepository)(nil)

// SyncWorker copies transactions and reports from SQLite to the spreadsheet.
type SyncWorker struct {
	store     SyncStore
	exporter  ledger.Exporter
	batchSize int
}

func NewSyncWorker(store SyncStore, exporter ledger.Exporter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleMessage processes a single job from AMQP. Jobs whose record has
// been deleted in the meantime are acknowledged and skipped.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	switch msg.Type {
	case amqp.TransactionSync:
		t, err := w.store.GetTransaction(ctx, msg.ID)
		if errors.Is(err, ledger.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction no longer exists, skipping sync", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get transaction from storage: %w", err)
		}
		return w.syncTransaction(ctx, t)
	case amqp.ReportExport:
		r, err := w.store.GetReport(ctx, msg.ID)
		if errors.Is(err, ledger.ErrNotFound) {
			slog.WarnContext(ctx, "Report no longer exists, skipping export", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get report from storage: %w", err)
		}
		return w.exportReport(ctx, r)
	default:
		return fmt.Errorf("unsupported message type %q", msg.Type)
	}
}

// ProcessPending syncs records whose AMQP job was lost. It returns the
// number of records that reached the spreadsheet.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processBacklog(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger backlog when the worker starts, covering
// downtime and missed messages.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processBacklog(ctx, w.batchSize*5)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

// RunPeriodic calls ProcessPending every interval until ctx is done.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to process pending records", "error", err)
			} else if n > 0 {
				slog.InfoContext(ctx, "Processed pending records", "synced", n)
			}
		}
	}
}

// processBacklog drains transactions and reports concurrently.
func (w *SyncWorker) processBacklog(ctx context.Context, limit int) (int, error) {
	var txSynced, repSynced int
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pending, err := w.store.GetPendingSyncTransactions(gctx, limit)
		if err != nil {
			return fmt.Errorf("get pending transactions: %w", err)
		}
		for _, p := range pending {
			t, err := w.store.GetTransaction(gctx, p.ID)
			if err != nil {
				slog.ErrorContext(gctx, "Failed to get transaction", "id", p.ID, "error", err)
				if err := w.store.MarkSyncError(gctx, p.ID); err != nil {
					slog.ErrorContext(gctx, "Failed to mark sync error", "id", p.ID, "error", err)
				}
				continue
			}
			if err := w.syncTransaction(gctx, t); err != nil {
				slog.ErrorContext(gctx, "Failed to sync transaction", "id", p.ID, "error", err)
				continue
			}
			txSynced++
		}
		return nil
	})

	g.Go(func() error {
		pending, err := w.store.GetPendingReportExports(gctx, limit)
		if err != nil {
			return fmt.Errorf("get pending reports: %w", err)
		}
		for _, r := range pending {
			if err := w.exportReport(gctx, r); err != nil {
				slog.ErrorContext(gctx, "Failed to export report", "id", r.ID, "error", err)
				continue
			}
			repSynced++
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return txSynced + repSynced, err
	}
	return txSynced + repSynced, nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, t core.Transaction) error {
	ref, err := w.exporter.ExportTransaction(ctx, t)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("export transaction: %w", err)
	}

	// the row is already in the sheet; a failed mark only causes a re-export
	if err := w.store.MarkSynced(ctx, t.ID, ref); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", t.ID,
		"sheets_ref", ref,
		"kind", t.Kind,
		"amount", t.Amount.String())
	return nil
}

func (w *SyncWorker) exportReport(ctx context.Context, r core.Report) error {
	ref, err := w.exporter.ExportReport(ctx, r)
	if err != nil {
		if markErr := w.store.MarkReportExportError(ctx, r.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", r.ID, "error", markErr)
		}
		return fmt.Errorf("export report: %w", err)
	}
	if err := w.store.MarkReportExported(ctx, r.ID, ref); err != nil {
		slog.ErrorContext(ctx, "Failed to mark report exported", "id", r.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully exported report",
		"id", r.ID,
		"ref", r.Ref,
		"sheets_ref", ref)
	return nil
}
