// Package services orchestrates I/O around the pure analytics engine.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"payble/internal/analytics"
	"payble/internal/core"
	"payble/internal/records"
	"payble/internal/settings"
)

// InsightsQuery selects what report to build. A zero Now uses the
// service clock; a zero MonthsBack uses the service default.
type InsightsQuery struct {
	Now        time.Time
	MonthsBack int
}

// Insights is a report with the preferences it was built from.
type Insights struct {
	Report      analytics.Report     `json:"report"`
	Preferences settings.Preferences `json:"preferences"`
}

type InsightsService struct {
	records    records.Lister
	settings   settings.Repository
	now        func() time.Time
	monthsBack int
}

// NewInsightsService wires the record and settings sources. monthsBack <= 0
// uses the analytics default.
func NewInsightsService(rec records.Lister, repo settings.Repository, monthsBack int) *InsightsService {
	return &InsightsService{records: rec, settings: repo, now: time.Now, monthsBack: monthsBack}
}

// WithClock replaces the clock used when a query carries no Now.
func (s *InsightsService) WithClock(now func() time.Time) *InsightsService {
	s.now = now
	return s
}

// Build loads the obligation snapshot and the preferences concurrently and
// computes a report.
func (s *InsightsService) Build(ctx context.Context, q InsightsQuery) (Insights, error) {
	var (
		obs   []core.Obligation
		prefs settings.Preferences
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		obs, err = s.records.ListObligations(gctx)
		if err != nil {
			return fmt.Errorf("list obligations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prefs, err = settings.Load(gctx, s.settings)
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Insights{}, err
	}

	s.logExcluded(ctx, obs)

	now := q.Now
	if now.IsZero() {
		now = s.now()
	}
	months := q.MonthsBack
	if months <= 0 {
		months = s.monthsBack
	}
	report := analytics.Build(obs, analytics.Options{
		Now:        now,
		MonthsBack: months,
		Forecast:   prefs.Forecast,
		Budget:     prefs.Budget,
	})
	return Insights{Report: report, Preferences: prefs}, nil
}

// MonthlyCSV builds the month buckets for export.
func (s *InsightsService) MonthlyCSV(ctx context.Context, q InsightsQuery) ([]analytics.MonthBucket, error) {
	in, err := s.Build(ctx, q)
	if err != nil {
		return nil, err
	}
	return in.Report.Monthly, nil
}

func (s *InsightsService) logExcluded(ctx context.Context, obs []core.Obligation) {
	bad := analytics.InvalidDueDates(obs)
	if len(bad) == 0 {
		return
	}
	ids := make([]string, len(bad))
	for i, o := range bad {
		ids[i] = o.ID
	}
	slog.WarnContext(ctx, "Obligations excluded from date buckets",
		"excluded", len(bad),
		"ids", ids,
		"reason", "unparsable due date")
}
