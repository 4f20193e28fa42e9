package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"payble/internal/core"
	"payble/internal/records"
)

var (
	_ records.Store     = (*Store)(nil)
	_ records.SeenStore = (*Store)(nil)
)

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	seed := `[
		{"_id":"b","bill_name":"Water","amount":30,"due_date":"2024-06-02","is_paid":false},
		{"_id":"a","bill_name":"Rent","amount":"900","due_date":"2024-06-01","is_paid":true},
		{"_id":"c","bill_name":"Gym","due_date":"June-ish","is_paid":false},
		{"_id":"d","bill_name":"Phone","amount":"n/a","due_date":"2024-06-03","is_paid":false}
	]`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, _ := s.ListObligations(context.Background())
	if len(got) != 4 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "d" || got[3].ID != "c" {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[1].Amount.Decimal.IntPart() != 30 {
		t.Fatalf("numeric amount not parsed: %+v", got[1].Amount)
	}
	if got[2].Amount.Valid {
		t.Fatalf("expected malformed amount kept as absent, got %+v", got[2].Amount)
	}
}

func TestNewFromFilesMissing(t *testing.T) {
	s, err := NewFromFiles(t.TempDir())
	if err != nil {
		t.Fatalf("expected empty store, got %v", err)
	}
	got, _ := s.ListObligations(context.Background())
	if len(got) != 0 {
		t.Fatalf("expected no obligations")
	}
}

func TestUpsertAndMarkPaid(t *testing.T) {
	ctx := context.Background()
	s := New()
	stored, err := s.UpsertObligations(ctx, []core.Obligation{
		{BillName: "Internet", DueDate: core.ParseTimestamp("2024-06-10", time.UTC)},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	id := stored[0].ID
	if id == "" || stored[0].CreatedAt == nil {
		t.Fatalf("expected id and created_at, got %+v", stored[0])
	}

	at := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)
	paid, err := s.MarkPaid(ctx, id, at)
	if err != nil || !paid.IsPaid || !paid.PaidAt.Equal(at) {
		t.Fatalf("unexpected %+v %v", paid, err)
	}
	if _, err := s.MarkPaid(ctx, "nope", at); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpsertObligations(ctx, []core.Obligation{{BillName: "x"}}); !errors.Is(err, core.ErrMissingDue) {
		t.Fatalf("expected ErrMissingDue, got %v", err)
	}
}

func TestSeen(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.MarkSeen(ctx, []string{"a:overdue"})
	seen, _ := s.SeenKeys(ctx)
	if _, ok := seen["a:overdue"]; !ok || len(seen) != 1 {
		t.Fatalf("unexpected %v", seen)
	}
}
