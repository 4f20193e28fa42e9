package sheets

import (
	"context"

	"payble/internal/analytics"
)

// ReportWriter publishes a computed insights report to an external
// spreadsheet. It is a one-way snapshot; nothing reads it back.
type ReportWriter interface {
	WriteReport(ctx context.Context, r analytics.Report) (updatedRange string, err error)
}
