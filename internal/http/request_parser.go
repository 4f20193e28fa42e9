package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"payble/internal/core"
)

const (
	maxBodyBytes = 1 << 20
	maxMonths    = 36
)

var errBadRequest = errors.New("bad request")

// insightsParams are the query parameters accepted by the insights routes.
type insightsParams struct {
	Now    time.Time
	Months int
}

// parseInsightsParams reads now (RFC3339 or YYYY-MM-DD in loc) and months.
// A missing now is left zero so the service clock applies.
func parseInsightsParams(query url.Values, loc *time.Location) (insightsParams, error) {
	var p insightsParams
	if v := strings.TrimSpace(query.Get("now")); v != "" {
		ts := core.ParseTimestamp(v, loc)
		if !ts.Valid {
			return p, fmt.Errorf("%w: invalid now %q", errBadRequest, v)
		}
		p.Now = ts.Time
	}
	if v := strings.TrimSpace(query.Get("months")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > maxMonths {
			return p, fmt.Errorf("%w: months must be between 1 and %d", errBadRequest, maxMonths)
		}
		p.Months = m
	}
	return p, nil
}

// parseDayParam reads an optional day=YYYY-MM-DD as midnight in loc.
func parseDayParam(query url.Values, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(query.Get("day"))
	if v == "" {
		return time.Time{}, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day must be YYYY-MM-DD, got %q", errBadRequest, v)
	}
	return day, nil
}

// decodeJSON decodes a size-limited body into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
