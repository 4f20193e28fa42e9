package adapters

import (
	"context"
	"time"

	"payble/internal/core"
	"payble/internal/services"
	"payble/internal/storage"
)

// SQLiteAdapter routes writes through ObligationService so they publish
// refresh messages, and serves reads and notification bookkeeping straight
// from SQLite.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.ObligationService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.ObligationService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// ListObligations implements records.Lister
func (a *SQLiteAdapter) ListObligations(ctx context.Context) ([]core.Obligation, error) {
	return a.storage.ListObligations(ctx)
}

// UpsertObligations implements records.Writer
func (a *SQLiteAdapter) UpsertObligations(ctx context.Context, obs []core.Obligation) ([]core.Obligation, error) {
	return a.service.UpsertObligations(ctx, obs)
}

// MarkPaid implements records.Writer
func (a *SQLiteAdapter) MarkPaid(ctx context.Context, id string, at time.Time) (core.Obligation, error) {
	return a.service.MarkPaid(ctx, id, at)
}

// SeenKeys implements records.SeenStore
func (a *SQLiteAdapter) SeenKeys(ctx context.Context) (map[string]struct{}, error) {
	return a.storage.SeenKeys(ctx)
}

// MarkSeen implements records.SeenStore
func (a *SQLiteAdapter) MarkSeen(ctx context.Context, keys []string) error {
	return a.storage.MarkSeen(ctx, keys)
}

// Ping implements records.Pinger
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}
