package http

import (
	"context"
	"net/http"
	"sync/atomic"

	"payble/internal/analytics"
	applog "payble/internal/log"
	"payble/internal/services"
	"payble/internal/settings"
)

func (s *Server) insightsQuery(w http.ResponseWriter, r *http.Request) (services.InsightsQuery, bool) {
	p, err := parseInsightsParams(r.URL.Query(), s.loc)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return services.InsightsQuery{}, false
	}
	now := p.Now
	if now.IsZero() {
		now = s.now().In(s.loc)
	}
	return services.InsightsQuery{Now: now, MonthsBack: p.Months}, true
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	q, ok := s.insightsQuery(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	in, err := s.insights.Build(ctx, q)
	if err != nil {
		respondError(w, r, applog.OpBuild, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.insightsBuilt, 1)
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Insights built",
		applog.FieldMonths, len(in.Report.Monthly),
		applog.FieldExcluded, in.Report.ExcludedRecords,
		applog.FieldForecast, in.Report.Forecast.Method)
	writeJSON(w, r, http.StatusOK, in)
}

func (s *Server) handleMonthlyCSV(w http.ResponseWriter, r *http.Request) {
	q, ok := s.insightsQuery(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	buckets, err := s.insights.MonthlyCSV(ctx, q)
	if err != nil {
		respondError(w, r, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="payble-monthly.csv"`)
	if err := analytics.WriteMonthlyCSV(w, buckets); err != nil {
		applog.FromContext(r.Context()).Failure(r.Context(), "Failed to write CSV", err, applog.FieldOperation, applog.OpExport)
	}
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	prefs, err := settings.Load(ctx, s.settings)
	if err != nil {
		respondError(w, r, applog.OpSettings, err)
		return
	}
	writeJSON(w, r, http.StatusOK, prefs)
}

// handlePutPreferences overlays the body on the stored preferences. Fields
// out of range are clamped, never rejected.
func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	prefs, err := settings.Load(ctx, s.settings)
	if err != nil {
		respondError(w, r, applog.OpSettings, err)
		return
	}
	if err := decodeJSON(r, &prefs, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := settings.Save(ctx, s.settings, prefs)
	if err != nil {
		respondError(w, r, applog.OpSettings, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Preferences saved",
		applog.FieldForecast, saved.Forecast.Method,
		"weight", saved.Forecast.Weight,
		"clip", saved.Forecast.ClipMultiplier)
	writeJSON(w, r, http.StatusOK, saved)
}
