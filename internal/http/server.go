// Package http serves the insights, settings, notification and obligation
// JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "payble/internal/log"
	"payble/internal/middleware/ratelimit"
	"payble/internal/middleware/security"
	"payble/internal/middleware/trace"
	"payble/internal/records"
	"payble/internal/services"
	"payble/internal/settings"
)

// requestTimeout bounds every store and settings call made by a handler.
const requestTimeout = 7 * time.Second

// Deps are the collaborators the server routes to.
type Deps struct {
	Logger        *applog.Logger
	Store         records.Store
	Insights      *services.InsightsService
	Notifications *services.NotificationService
	Settings      settings.Repository

	RateLimitPerMinute int
	Location           *time.Location
	// Now is the server clock used when a request carries no now parameter.
	Now func() time.Time
}

type appMetrics struct {
	uptime              time.Time
	insightsBuilt       int64
	obligationsUpserted int64
}

type Server struct {
	http.Server
	logger        *applog.Logger
	store         records.Store
	insights      *services.InsightsService
	notifications *services.NotificationService
	settings      settings.Repository
	loc           *time.Location
	now           func() time.Time

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	appMetrics      *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		logger:        logger,
		store:         deps.Store,
		insights:      deps.Insights,
		notifications: deps.Notifications,
		settings:      deps.Settings,
		loc:           loc,
		now:           now,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
		traceMiddleware: trace.NewMiddleware(logger, extractClientIP),
		appMetrics:      &appMetrics{uptime: now()},
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/insights", s.handleInsights)
	api.HandleFunc("GET /api/insights/monthly.csv", s.handleMonthlyCSV)
	api.HandleFunc("GET /api/settings/forecast", s.handleGetPreferences)
	api.HandleFunc("PUT /api/settings/forecast", s.handlePutPreferences)
	api.HandleFunc("GET /api/notifications", s.handleNotifications)
	api.HandleFunc("POST /api/notifications/seen", s.handleMarkSeen)
	api.HandleFunc("GET /api/obligations", s.handleListObligations)
	api.HandleFunc("POST /api/obligations", s.handleUpsertObligations)
	api.HandleFunc("POST /api/obligations/{id}/paid", s.handleMarkPaid)

	limited := s.rateLimiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
	})(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("/api/", limited)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           headers.Middleware(s.traceMiddleware.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
