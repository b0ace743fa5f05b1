// Package http serves the ledger as a JSON resource, file downloads and a
// server rendered dashboard.
package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"pennywise/internal/cache"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/services"
	appweb "pennywise/web"
)

// Config holds server settings.
type Config struct {
	Addr             string
	RateLimitPerMin  int
	TrustedProxies   []netip.Prefix
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration
}

type Server struct {
	http.Server
	svc       *services.LedgerService
	templates *template.Template
	logger    *log.Logger

	proxies   proxyList
	limiter   *rateLimiter
	metrics   *securityMetrics
	summaries *cache.LRU[core.Summary]

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(cfg Config, svc *services.LedgerService, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	cacheSize := cfg.SummaryCacheSize
	if cacheSize < 1 {
		cacheSize = 64
	}
	ttl := cfg.SummaryCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	s := &Server{
		svc:       svc,
		templates: t,
		logger:    logger,
		proxies:   proxyList(cfg.TrustedProxies),
		limiter:   newRateLimiter(cfg.RateLimitPerMin),
		metrics:   &securityMetrics{},
		summaries: cache.NewLRU[core.Summary](cacheSize, ttl),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/transactions/category/{category}", s.handleTransactionsByCategory)
	mux.HandleFunc("GET /api/transactions/type/{type}", s.handleTransactionsByType)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /export/{format}", s.handleExport)
	mux.HandleFunc("POST /api/export/sheets", s.handleSheetsExport)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.withMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Cleaners returns the server's expiring state for a cache.Janitor.
func (s *Server) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{s.summaries, s.limiter}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		hits, misses := s.summaries.Stats()
		s.logger.InfoContext(ctx, "Shutting down HTTP server",
			log.FieldOperation, log.OpShutdown,
			"summary_cache_hits", hits,
			"summary_cache_misses", misses)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Transactions       int    `json:"transactions"`
	Revision           uint64 `json:"revision"`
	SummaryCacheSize   int    `json:"summaryCacheSize"`
	SummaryCacheHits   uint64 `json:"summaryCacheHits"`
	SummaryCacheMisses uint64 `json:"summaryCacheMisses"`
	RateLimitHits      int64  `json:"rateLimitHits"`
	SuspiciousRequests int64  `json:"suspiciousRequests"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	l := s.svc.Ledger()
	hits, misses := s.summaries.Stats()
	rl, suspicious := s.metrics.snapshot()
	writeData(w, r, http.StatusOK, readiness{
		Transactions:       l.Len(),
		Revision:           l.Revision(),
		SummaryCacheSize:   s.summaries.Size(),
		SummaryCacheHits:   hits,
		SummaryCacheMisses: misses,
		RateLimitHits:      rl,
		SuspiciousRequests: suspicious,
	}, "")
}
