package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finsight/internal/cache"
	"finsight/internal/core"
	"finsight/internal/insights"
	applog "finsight/internal/log"
)

// RecordCreator accepts new financial records.
type RecordCreator interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	CreateTaxPayment(ctx context.Context, p core.TaxPayment) (core.TaxPayment, error)
}

// RecordReader lists stored financial records.
type RecordReader interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListInvoices(ctx context.Context) ([]core.Invoice, error)
	ListTaxPayments(ctx context.Context) ([]core.TaxPayment, error)
}

// SettingsStore reads and writes the dashboard settings document.
type SettingsStore interface {
	Settings(ctx context.Context) (core.Settings, error)
	SaveSettings(ctx context.Context, s core.Settings) error
}

// Pinger reports storage health for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr            string
	InsightCacheTTL time.Duration
	RateLimitPerMin int

	// Logger receives the request logs. A nil Logger gets a default
	// stdout logger tagged with the http component.
	Logger *applog.Logger
}

type Server struct {
	http.Server

	insightSvc *insights.Service
	creator    RecordCreator
	reader     RecordReader
	settings   SettingsStore
	pinger     Pinger

	logger      *applog.Logger
	rateLimiter *rateLimiter

	// Cached insight list, purged on every mutation.
	insightCache *cache.LRUCache[[]core.Insight]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

const insightCacheKey = "insights"

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(opts Options, svc *insights.Service, creator RecordCreator, reader RecordReader, settings SettingsStore, pinger Pinger) *Server {
	mux := http.NewServeMux()

	ttl := opts.InsightCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	limit := opts.RateLimitPerMin
	if limit <= 0 {
		limit = 60
	}
	logger := opts.Logger
	if logger == nil {
		cfg := applog.DefaultConfig()
		cfg.Component = applog.ComponentHTTP
		logger = applog.New(cfg)
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		insightSvc:   svc,
		creator:      creator,
		reader:       reader,
		settings:     settings,
		pinger:       pinger,
		logger:       logger,
		rateLimiter:  newRateLimiter(limit),
		insightCache: cache.NewLRUCache[[]core.Insight](1, ttl),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.insightCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/insights", s.withMiddleware(s.handleInsights))
	mux.HandleFunc("/api/insights/count", s.withMiddleware(s.handleInsightCount))
	mux.HandleFunc("/api/insights/dismiss", s.withMiddleware(s.handleDismiss))
	mux.HandleFunc("/api/insights/dismissals", s.withMiddleware(s.handleReplaceDismissals))
	mux.HandleFunc("/api/insights/dismissals/reset", s.withMiddleware(s.handleResetDismissals))

	mux.HandleFunc("/api/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("/api/invoices", s.withMiddleware(s.handleInvoices))
	mux.HandleFunc("/api/taxpayments", s.withMiddleware(s.handleTaxPayments))

	mux.HandleFunc("/api/settings", s.withMiddleware(s.handleSettings))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds request-scoped logging, rate limiting, and security
// headers. The request logger lands in the context so handlers can enrich
// their own records with the same request ID.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)

		logger := applog.FromContext(r.Context()).With(
			applog.FieldClientIP, ip,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		logger.InfoContext(ctx, "Request started")

		// Mutations are rate limited per client IP.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(ip) {
			logger.WarnContext(ctx, "Rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	})

	withRequestID := applog.RequestIDMiddleware(func(*http.Request) string {
		return generateRequestID()
	})
	return applog.Middleware(s.logger)(withRequestID(handler)).ServeHTTP
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// invalidateInsights drops the cached insight list after a mutation.
func (s *Server) invalidateInsights() {
	s.insightCache.Purge()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
