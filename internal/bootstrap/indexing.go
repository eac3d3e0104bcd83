package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/clausemind/internal/observability/metrics"
)

// IndexInProcess reports whether the indexing consumer must run inside the
// api process. The exact backend keeps its entries in process memory and
// shares only a startup snapshot, so a separate worker would build an index
// the api never observes and resurrect deleted documents when its snapshot
// lands. Remote backends hold index state outside either process and can run
// a dedicated worker.
func IndexInProcess(backend string) bool {
	switch backend {
	case "", "exact":
		return true
	default:
		return false
	}
}

// RunIndexing consumes ingestion events, indexes each document, and keeps
// the index snapshot fresh. It blocks until ctx is cancelled, then writes a
// final snapshot so a restart resumes from the last indexed state.
func (a *App) RunIndexing(ctx context.Context, service string, m *metrics.WorkerMetrics) error {
	go a.snapshotLoop(ctx, m, time.Duration(a.Config.SnapshotInterval)*time.Second)

	err := a.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		indexCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if doc, err := a.Repo.GetByID(indexCtx, documentID); err == nil {
			m.ObserveQueueLag(service, time.Since(doc.UpdatedAt))
		}

		m.StartDocument()
		start := time.Now()
		indexErr := a.IndexUC.IndexByID(indexCtx, documentID)
		m.FinishDocument(service, time.Since(start), indexErr)
		return indexErr
	})
	if err != nil {
		return err
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Index.Persist(persistCtx); err != nil {
		slog.Error("index_persist_failed", "error", err)
	}
	return nil
}

// snapshotLoop persists the index periodically, bounding how much indexing
// work a crash can lose.
func (a *App) snapshotLoop(ctx context.Context, m *metrics.WorkerMetrics, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			persistCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := a.Index.Persist(persistCtx); err != nil {
				slog.Warn("index_snapshot_failed", "error", err)
			}
			if size, err := a.Index.Size(persistCtx); err == nil {
				m.SetIndexSize(size)
			}
			cancel()
		}
	}
}
