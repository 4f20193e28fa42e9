package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type obligationRow struct {
	ID        string
	BillName  string
	Amount    sql.NullString
	DueDate   string
	IsPaid    bool
	PaidAt    sql.NullString
	Category  string
	Priority  string
	CreatedAt sql.NullString
}

const obligationColumns = `id, bill_name, amount, due_date, is_paid, paid_at, category, priority, created_at`

const listObligations = `SELECT ` + obligationColumns + ` FROM obligations ORDER BY due_date, id`

func (q *Queries) ListObligations(ctx context.Context) ([]obligationRow, error) {
	rows, err := q.db.QueryContext(ctx, listObligations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []obligationRow
	for rows.Next() {
		var r obligationRow
		if err := scanObligation(rows, &r); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getObligation = `SELECT ` + obligationColumns + ` FROM obligations WHERE id = ?`

func (q *Queries) GetObligation(ctx context.Context, id string) (obligationRow, error) {
	var r obligationRow
	err := scanObligation(q.db.QueryRowContext(ctx, getObligation, id), &r)
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObligation(s scanner, r *obligationRow) error {
	return s.Scan(&r.ID, &r.BillName, &r.Amount, &r.DueDate, &r.IsPaid, &r.PaidAt, &r.Category, &r.Priority, &r.CreatedAt)
}

const upsertObligation = `
INSERT INTO obligations (id, bill_name, amount, due_date, is_paid, paid_at, category, priority, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    bill_name  = excluded.bill_name,
    amount     = excluded.amount,
    due_date   = excluded.due_date,
    is_paid    = excluded.is_paid,
    paid_at    = excluded.paid_at,
    category   = excluded.category,
    priority   = excluded.priority,
    created_at = COALESCE(obligations.created_at, excluded.created_at),
    updated_at = excluded.updated_at`

type upsertObligationParams struct {
	obligationRow
	UpdatedAt string
}

func (q *Queries) UpsertObligation(ctx context.Context, p upsertObligationParams) error {
	_, err := q.db.ExecContext(ctx, upsertObligation,
		p.ID, p.BillName, p.Amount, p.DueDate, p.IsPaid, p.PaidAt,
		p.Category, p.Priority, p.CreatedAt, p.UpdatedAt)
	return err
}

const markObligationPaid = `UPDATE obligations SET is_paid = 1, paid_at = ?, updated_at = ? WHERE id = ?`

func (q *Queries) MarkObligationPaid(ctx context.Context, id, paidAt, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markObligationPaid, paidAt, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getSetting = `SELECT value FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&v)
	return v, err
}

const setSetting = `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (q *Queries) SetSetting(ctx context.Context, key, value, updatedAt string) error {
	_, err := q.db.ExecContext(ctx, setSetting, key, value, updatedAt)
	return err
}

const listSeenKeys = `SELECT key FROM seen_notifications`

func (q *Queries) ListSeenKeys(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSeenKeys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

const insertSeenKey = `INSERT INTO seen_notifications (key, seen_at) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`

func (q *Queries) InsertSeenKey(ctx context.Context, key, seenAt string) error {
	_, err := q.db.ExecContext(ctx, insertSeenKey, key, seenAt)
	return err
}
