// Package storage persists obligations, settings and seen notification keys
// in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payble/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	loc     *time.Location
	now     func() time.Time
}

// Option customises a repository.
type Option func(*SQLiteRepository)

// WithLocation sets the zone used for due dates stored without one.
func WithLocation(loc *time.Location) Option {
	return func(r *SQLiteRepository) { r.loc = loc }
}

// WithClock replaces the time source used for bookkeeping columns.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListObligations returns every stored obligation ordered by due date.
func (r *SQLiteRepository) ListObligations(ctx context.Context) ([]core.Obligation, error) {
	rows, err := r.queries.ListObligations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	out := make([]core.Obligation, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.toObligation(row))
	}
	return out, nil
}

func (r *SQLiteRepository) GetObligation(ctx context.Context, id string) (core.Obligation, error) {
	row, err := r.queries.GetObligation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Obligation{}, core.ErrNotFound
	}
	if err != nil {
		return core.Obligation{}, fmt.Errorf("get obligation %s: %w", id, err)
	}
	return r.toObligation(row), nil
}

// UpsertObligations validates and stores obligations in one transaction,
// assigning IDs to those without one. It returns the stored records.
func (r *SQLiteRepository) UpsertObligations(ctx context.Context, obs []core.Obligation) ([]core.Obligation, error) {
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("obligation %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	now := r.now().UTC()
	stored := make([]core.Obligation, len(obs))
	for i, o := range obs {
		if strings.TrimSpace(o.ID) == "" {
			o.ID = uuid.NewString()
		}
		if o.CreatedAt == nil {
			o.CreatedAt = &now
		}
		if err := q.UpsertObligation(ctx, upsertObligationParams{
			obligationRow: fromObligation(o),
			UpdatedAt:     now.Format(timeLayout),
		}); err != nil {
			return nil, fmt.Errorf("upsert obligation %s: %w", o.ID, err)
		}
		stored[i] = o
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit obligations: %w", err)
	}

	slog.InfoContext(ctx, "Obligations saved to SQLite", "count", len(stored))
	return stored, nil
}

// MarkPaid flags an obligation as paid at the given time.
func (r *SQLiteRepository) MarkPaid(ctx context.Context, id string, at time.Time) (core.Obligation, error) {
	n, err := r.queries.MarkObligationPaid(ctx, id, at.UTC().Format(timeLayout), r.now().UTC().Format(timeLayout))
	if err != nil {
		return core.Obligation{}, fmt.Errorf("mark obligation %s paid: %w", id, err)
	}
	if n == 0 {
		return core.Obligation{}, core.ErrNotFound
	}
	slog.InfoContext(ctx, "Obligation marked as paid", "id", id)
	return r.GetObligation(ctx, id)
}

// Get implements settings.Repository.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.queries.GetSetting(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements settings.Repository.
func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	if err := r.queries.SetSetting(ctx, key, value, r.now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// SeenKeys returns every notification key marked as seen.
func (r *SQLiteRepository) SeenKeys(ctx context.Context) (map[string]struct{}, error) {
	keys, err := r.queries.ListSeenKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seen keys: %w", err)
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}

// MarkSeen records notification keys. Already seen keys are ignored.
func (r *SQLiteRepository) MarkSeen(ctx context.Context, keys []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	at := r.now().UTC().Format(timeLayout)
	for _, k := range keys {
		if err := q.InsertSeenKey(ctx, k, at); err != nil {
			return fmt.Errorf("mark %s seen: %w", k, err)
		}
	}
	return tx.Commit()
}

func fromObligation(o core.Obligation) obligationRow {
	row := obligationRow{
		ID:       o.ID,
		BillName: strings.TrimSpace(o.BillName),
		DueDate:  o.DueDate.String(),
		IsPaid:   o.IsPaid,
		Category: o.Category,
		Priority: o.Priority,
	}
	if o.Amount.Valid {
		row.Amount = sql.NullString{String: o.Amount.Decimal.String(), Valid: true}
	}
	if o.PaidAt != nil {
		row.PaidAt = sql.NullString{String: o.PaidAt.UTC().Format(timeLayout), Valid: true}
	}
	if o.CreatedAt != nil {
		row.CreatedAt = sql.NullString{String: o.CreatedAt.UTC().Format(timeLayout), Valid: true}
	}
	return row
}

func (r *SQLiteRepository) toObligation(row obligationRow) core.Obligation {
	o := core.Obligation{
		ID:       row.ID,
		BillName: row.BillName,
		DueDate:  core.ParseTimestamp(row.DueDate, r.loc),
		IsPaid:   row.IsPaid,
		Category: row.Category,
		Priority: row.Priority,
	}
	if row.Amount.Valid {
		if d, err := decimal.NewFromString(row.Amount.String); err == nil {
			o.Amount = decimal.NewNullDecimal(d)
		}
	}
	o.PaidAt = parseOptionalTime(row.PaidAt)
	o.CreatedAt = parseOptionalTime(row.CreatedAt)
	return o
}

func parseOptionalTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
