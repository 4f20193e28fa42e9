package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"payble/internal/records"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.appMetrics.uptime).String(),
	})
}

// handleReady reports not_ready when a dependency is missing or its ping
// fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name, reason string) {
		checks[name] = reason
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	switch {
	case s.store == nil:
		fail("records", "not_configured")
	default:
		if p, ok := s.store.(records.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				fail("records", fmt.Sprintf("failed: %v", err))
			} else {
				checks["records"] = "ok"
			}
		} else {
			checks["records"] = "ok"
		}
	}

	if s.settings == nil {
		fail("settings", "not_configured")
	} else if _, _, err := s.settings.Get(ctx, "readyz"); err != nil {
		fail("settings", fmt.Sprintf("failed: %v", err))
	} else {
		checks["settings"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, r, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("insights_built_total", "counter", "Insights reports served", atomic.LoadInt64(&s.appMetrics.insightsBuilt))
	metric("obligations_upserted_total", "counter", "Obligations received from the feed", atomic.LoadInt64(&s.appMetrics.obligationsUpserted))
	metric("rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", s.now().Sub(s.appMetrics.uptime).Seconds()))
}
