// Package http exposes the category, transaction and report use cases as a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/query"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// CategoryService is the category use-case surface the API needs.
type CategoryService interface {
	Create(ctx context.Context, identity core.UserID, in services.CategoryInput) (core.Category, error)
	Get(ctx context.Context, identity core.UserID, id int64) (core.Category, error)
	Update(ctx context.Context, identity core.UserID, id int64, in services.CategoryInput) (core.Category, error)
	Delete(ctx context.Context, identity core.UserID, id int64) error
	List(ctx context.Context, identity core.UserID, p query.CategoryParams) (query.Page[core.Category], error)
	SeedCategories(ctx context.Context, identity core.UserID) ([]core.Category, error)
}

// TransactionService is the transaction use-case surface the API needs.
type TransactionService interface {
	Create(ctx context.Context, identity core.UserID, categoryID int64, in services.TransactionInput) (core.Transaction, error)
	Get(ctx context.Context, identity core.UserID, id int64) (core.Transaction, error)
	Update(ctx context.Context, identity core.UserID, id int64, in services.TransactionInput) (core.Transaction, error)
	Delete(ctx context.Context, identity core.UserID, id int64) error
	List(ctx context.Context, identity core.UserID, p query.TransactionParams) (query.Page[core.Transaction], error)
	Seed(ctx context.Context, identity core.UserID, n int) ([]core.Transaction, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr               string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	ReadinessTimeout   time.Duration
	Logger             *log.Logger
}

func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 60,
		ReadinessTimeout:   5 * time.Second,
	}
}

type Dependencies struct {
	Categories   CategoryService
	Transactions TransactionService
	Reports      report.Reporter
	Auth         auth.Provider
	Store        Pinger
}

type Server struct {
	http.Server

	categories   CategoryService
	transactions TransactionService
	reports      report.Reporter
	auth         auth.Provider
	store        Pinger

	logger           *log.Logger
	readyTimeout     time.Duration
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	started      time.Time
	transactions int64
	categories   int64
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// Call Shutdown to stop it and its background goroutines.
func NewServer(cfg Config, deps Dependencies) *Server {
	defaults := DefaultConfig()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if cfg.ReadinessTimeout <= 0 {
		cfg.ReadinessTimeout = defaults.ReadinessTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if deps.Auth == nil {
		deps.Auth = auth.NewHeaderProvider("")
	}

	s := &Server{
		categories:       deps.Categories,
		transactions:     deps.Transactions,
		reports:          deps.Reports,
		auth:             deps.Auth,
		store:            deps.Store,
		logger:           cfg.Logger.WithComponent(log.ComponentHTTP),
		readyTimeout:     cfg.ReadinessTimeout,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{started: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(cfg.Logger, s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.chain(mux, cfg.MaxBodyBytes),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /categories/{$}", s.handleListCategories)
	mux.HandleFunc("POST /category/add/{$}", s.handleCreateCategory)
	mux.HandleFunc("GET /category/{pk}/{$}", s.handleGetCategory)
	mux.HandleFunc("PUT /category/{pk}/{$}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /category/{pk}/{$}", s.handleDeleteCategory)

	mux.HandleFunc("GET /transactions/{$}", s.handleListTransactions)
	mux.HandleFunc("POST /transaction/add/{category_id}/{$}", s.handleCreateTransaction)
	mux.HandleFunc("GET /transaction/{pk}/{$}", s.handleGetTransaction)
	mux.HandleFunc("PUT /transaction/{pk}/{$}", s.handleUpdateTransaction)
	mux.HandleFunc("PATCH /transaction/{pk}/{$}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transaction/{pk}/{$}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /report/{window}/{$}", s.handleWindowReport)
	mux.HandleFunc("GET /report/category/{pk}/{$}", s.handleCategoryReport)

	mux.HandleFunc("POST /random-transactions/{$}", s.handleSeedTransactions)
	mux.HandleFunc("POST /random-categories/{$}", s.handleSeedCategories)
}

// chain applies the middleware, outermost first: tracing, request logger,
// security headers, probe detection, write rate limit, body limit.
func (s *Server) chain(h http.Handler, maxBody int64) http.Handler {
	h = limitBody(maxBody)(h)
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit)(h)
	h = s.securityDetector.Middleware(s.logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.Middleware(s.logger, trace.GetRequestID)(h)
	return s.traceMiddleware.Middleware(h)
}

func limitBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, detailBody{Detail: "Request was throttled."})
}

// Shutdown stops accepting requests, drains in-flight ones and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// identity resolves the caller or writes the 401 and reports false.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (core.UserID, bool) {
	id, err := s.auth.Identity(r)
	if err != nil {
		writeError(w, r, err, "")
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.readyTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}
	switch {
	case s.store == nil:
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.store.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	tm := s.traceMiddleware.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	sec := s.securityDetector.GetMetrics()
	counters := []struct {
		name, help string
		value      int64
	}{
		{"http_requests_total", "Total number of HTTP requests", tm.TotalRequests},
		{"http_server_errors_total", "Responses with a 5xx status", tm.ServerErrors},
		{"http_response_time_microseconds", "Smoothed response time", tm.AverageResponseTime},
		{"transactions_created_total", "Transactions created through the API", atomic.LoadInt64(&s.appMetrics.transactions)},
		{"categories_created_total", "Categories created through the API", atomic.LoadInt64(&s.appMetrics.categories)},
		{"rate_limit_hits_total", "Requests rejected by the rate limiter", rl.TotalHits},
		{"rate_limit_clients", "Clients tracked by the rate limiter", rl.ClientCount},
		{"security_suspicious_requests_total", "Requests flagged as suspicious", sec.SuspiciousRequests},
		{"uptime_seconds", "Seconds since the server started", int64(time.Since(s.appMetrics.started).Seconds())},
	}
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(w, "%s %d\n", c.name, c.value)
	}
}

