package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"payble/internal/amqp"
	"payble/internal/services"
	"payble/internal/sheets"
)

// InsightsBuilder computes the current insights.
type InsightsBuilder interface {
	Build(ctx context.Context, q services.InsightsQuery) (services.Insights, error)
}

// ExportWorker rebuilds the insights report and writes it to the sheet
// whenever a refresh is requested.
type ExportWorker struct {
	insights InsightsBuilder
	writer   sheets.ReportWriter

	mu         sync.Mutex
	lastExport time.Time
	minGap     time.Duration
	loc        *time.Location
	now        func() time.Time
}

// NewExportWorker creates a worker. Refreshes arriving within minGap of the
// previous export are coalesced into it. Calendar buckets are computed in loc
// (time.Local when nil).
func NewExportWorker(insights InsightsBuilder, writer sheets.ReportWriter, minGap time.Duration, loc *time.Location) *ExportWorker {
	if loc == nil {
		loc = time.Local
	}
	return &ExportWorker{insights: insights, writer: writer, minGap: minGap, loc: loc, now: time.Now}
}

// HandleRefresh processes a single refresh message from AMQP.
func (w *ExportWorker) HandleRefresh(ctx context.Context, msg *amqp.RefreshMessage) error {
	slog.InfoContext(ctx, "Processing refresh message",
		"reason", msg.Reason,
		"obligations", len(msg.ObligationIDs),
		"requested_at", msg.Timestamp)

	w.mu.Lock()
	skip := !w.lastExport.IsZero() && msg.Timestamp.Before(w.lastExport) && w.now().Sub(w.lastExport) < w.minGap
	w.mu.Unlock()
	if skip {
		slog.DebugContext(ctx, "Refresh already covered by a recent export", "reason", msg.Reason)
		return nil
	}
	return w.Export(ctx)
}

// Export builds the report and writes it out.
func (w *ExportWorker) Export(ctx context.Context) error {
	started := w.now().In(w.loc)
	in, err := w.insights.Build(ctx, services.InsightsQuery{Now: started})
	if err != nil {
		return fmt.Errorf("build insights: %w", err)
	}
	rng, err := w.writer.WriteReport(ctx, in.Report)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	w.mu.Lock()
	w.lastExport = started
	w.mu.Unlock()

	slog.InfoContext(ctx, "Insights export completed",
		"range", rng,
		"excluded_records", in.Report.ExcludedRecords,
		"duration", w.now().Sub(started))
	return nil
}

// RunPeriodic exports every interval until ctx is done. It backs up the
// message path in case refresh messages are lost.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Export(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}
