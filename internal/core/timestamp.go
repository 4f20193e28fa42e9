package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Timestamp is a due date as received from upstream. Raw always keeps the
// original text; Valid is false when it could not be parsed.
type Timestamp struct {
	Time  time.Time
	Valid bool
	Raw   string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with the supported layouts. Layouts without a zone
// are interpreted in loc (UTC when loc is nil). Unparsable input yields a
// Timestamp with Valid=false rather than an error.
func ParseTimestamp(s string, loc *time.Location) Timestamp {
	if loc == nil {
		loc = time.UTC
	}
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return Timestamp{Time: t, Valid: true, Raw: s}
		}
	}
	return Timestamp{Raw: s}
}

// NewTimestamp wraps a known-good time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true, Raw: t.Format(time.RFC3339)}
}

// String returns the raw text, or RFC3339 when only the time is known.
func (t Timestamp) String() string {
	if t.Raw != "" {
		return t.Raw
	}
	if t.Valid {
		return t.Time.Format(time.RFC3339)
	}
	return ""
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid && t.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Non-string values (numbers, objects) are kept as malformed input.
		*t = Timestamp{Raw: string(data)}
		return nil
	}
	*t = ParseTimestamp(s, time.Local)
	return nil
}

// StartOfDay returns local midnight of t in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns the first instant of t's calendar month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
