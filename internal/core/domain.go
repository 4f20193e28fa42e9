package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Obligation is a bill due by a date, optionally already paid.
	Obligation struct {
		ID        string              `json:"_id"`
		BillName  string              `json:"bill_name"`
		Amount    decimal.NullDecimal `json:"amount"`
		DueDate   Timestamp           `json:"due_date"`
		IsPaid    bool                `json:"is_paid"`
		PaidAt    *time.Time          `json:"paid_at,omitempty"`
		Category  string              `json:"category,omitempty"`
		Priority  string              `json:"priority,omitempty"`
		CreatedAt *time.Time          `json:"created_at,omitempty"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyBillName = errors.New("empty bill name")
	ErrMissingDue    = errors.New("missing due date")
	ErrNameTooLong   = errors.New("bill name too long (max 200 characters)")
	ErrNotFound      = errors.New("obligation not found")
)

// IsValidation reports whether err comes from validating caller input.
func IsValidation(err error) bool {
	for _, target := range []error{ErrInvalidAmount, ErrInvalidDate, ErrEmptyBillName, ErrMissingDue, ErrNameTooLong} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Value returns the amount used in sums. Absent or negative amounts count as 0.
func (o Obligation) Value() decimal.Decimal {
	if !o.Amount.Valid {
		return decimal.Zero
	}
	return NonNegative(o.Amount.Decimal)
}

// HasValidDue reports whether the due date can take part in date bucketing.
func (o Obligation) HasValidDue() bool {
	return o.DueDate.Valid
}

// Label is the breakdown key: category, then priority, then "unknown".
func (o Obligation) Label() string {
	if c := strings.TrimSpace(o.Category); c != "" {
		return c
	}
	if p := strings.TrimSpace(o.Priority); p != "" {
		return p
	}
	return "unknown"
}

// Validate checks the fields an upstream feed must provide. A due date that
// is present but unparsable passes: analytics excludes it and reports it.
// Amounts are never rejected; Value counts malformed or negative ones as 0.
func (o Obligation) Validate() error {
	if len(strings.TrimSpace(o.BillName)) == 0 {
		return ErrEmptyBillName
	}
	if len(o.BillName) > 200 {
		return ErrNameTooLong
	}
	if !o.DueDate.Valid && strings.TrimSpace(o.DueDate.Raw) == "" {
		return ErrMissingDue
	}
	return nil
}

// MarkPaid returns a copy of the obligation flagged as paid at the given time.
func (o Obligation) MarkPaid(at time.Time) Obligation {
	o.IsPaid = true
	o.PaidAt = &at
	return o
}

// UnmarshalJSON decodes an upstream record. An amount that is neither a
// number nor a numeric string is logged and kept as absent, so one bad
// amount never rejects the record.
func (o *Obligation) UnmarshalJSON(data []byte) error {
	type plain Obligation
	aux := struct {
		*plain
		Amount json.RawMessage `json:"amount"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	amount, ok := decodeAmount(aux.Amount)
	if !ok {
		slog.Warn("Ignoring malformed amount",
			"obligation_id", o.ID,
			"bill_name", o.BillName,
			"amount", string(aux.Amount))
	}
	o.Amount = amount
	return nil
}

func decodeAmount(raw json.RawMessage) (decimal.NullDecimal, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}, true
	}
	text := string(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = s
	}
	d, err := ParseAmount(text)
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}
