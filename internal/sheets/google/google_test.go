package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payble/internal/analytics"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type recorder struct {
	mu      sync.Mutex
	cleared []string
	written []gsheet.ValueRange
	query   []string
}

func newTestClient(t *testing.T, rec *recorder) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
			rec.cleared = append(rec.cleared, r.URL.Path)
			_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id"}`))
		case r.Method == http.MethodPut:
			var vr gsheet.ValueRange
			if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec.written = append(rec.written, vr)
			rec.query = append(rec.query, r.URL.RawQuery)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"updatedRange": "Insights!A1:B10",
				"updatedRows":  len(vr.Values),
			})
		default:
			http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return New(svc, "sheet-id", "")
}

func TestWriteReport(t *testing.T) {
	rec := &recorder{}
	c := newTestClient(t, rec)

	mom := decimal.NewFromInt(50)
	r := analytics.Report{
		GeneratedAt:    time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		TotalDue:       decimal.RequireFromString("120.5"),
		TotalPaid:      decimal.Zero,
		MonthOverMonth: &mom,
		Forecast:       analytics.Forecast{Method: analytics.MethodAverage},
		Monthly: []analytics.MonthBucket{
			{Label: "May 2024", Total: decimal.NewFromInt(100)},
			{Label: "Jun 2024", Total: decimal.NewFromInt(150)},
		},
	}
	got, err := c.WriteReport(context.Background(), r)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if got != "Insights!A1:B10" {
		t.Errorf("unexpected range %q", got)
	}
	if len(rec.cleared) != 1 || len(rec.written) != 1 {
		t.Fatalf("expected one clear and one update, got %d/%d", len(rec.cleared), len(rec.written))
	}
	if !strings.Contains(rec.query[0], "valueInputOption=USER_ENTERED") {
		t.Errorf("expected USER_ENTERED, got %q", rec.query[0])
	}

	values := rec.written[0].Values
	if len(values) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(values))
	}
	checks := map[int][2]string{
		0: {"Generated", "2024-06-15T10:00:00Z"},
		1: {"Total due", "120.50"},
		4: {"Month over month %", "50.00"},
		5: {"Forecast (average)", "not enough data"},
		7: {"Month", "Total"},
		9: {"Jun 2024", "150.00"},
	}
	for i, want := range checks {
		if values[i][0] != want[0] || values[i][1] != want[1] {
			t.Errorf("row %d: expected %v, got %v", i, want, values[i])
		}
	}
}

func TestWriteReportWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "x", sheet: DefaultSheetName}
	if _, err := c.WriteReport(context.Background(), analytics.Report{}); err == nil {
		t.Fatal("expected error when service is nil")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := NewClient(context.Background(), Options{}); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("expected missing spreadsheet error, got %v", err)
	}
	_, err := NewClient(context.Background(), Options{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
	_, err = NewClient(context.Background(), Options{SpreadsheetID: "id", CredentialsFile: "/nonexistent/creds.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}
