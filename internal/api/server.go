package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/config"
	"github.com/raaihank/pii-scanner/internal/discovery"
	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/metrics"
	"github.com/raaihank/pii-scanner/internal/web"
	"github.com/raaihank/pii-scanner/internal/websocket"
)

// Version is reported by /info
var Version = "dev"

// Server exposes the scan engine over HTTP
type Server struct {
	mu      sync.RWMutex
	config  *config.Config
	logger  *logger.Logger
	engine  *discovery.Engine
	wsHub   *websocket.Hub
	metrics *metrics.Metrics
	limiter *RateLimiter
	router  *mux.Router
	server  *http.Server
	started time.Time
}

// New creates the HTTP server. hub and m may be nil when the websocket or
// metrics endpoints are disabled.
func New(cfg *config.Config, log *logger.Logger, engine *discovery.Engine, hub *websocket.Hub, m *metrics.Metrics) *Server {
	s := &Server{
		config:  cfg,
		logger:  log.WithComponent("api"),
		engine:  engine,
		wsHub:   hub,
		metrics: m,
		limiter: NewRateLimiter(cfg.RateLimit.Enabled, cfg.RateLimit.RequestsPerMin, cfg.RateLimit.Burst),
		router:  mux.NewRouter(),
		started: time.Now(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/pii-types", s.handlePIITypes).Methods(http.MethodGet)

	scans := s.router.NewRoute().Subrouter()
	scans.Use(s.rateLimitMiddleware)
	scans.HandleFunc("/full-pii-scan", s.handleFullScan).Methods(http.MethodPost)
	scans.HandleFunc("/table-pii-scan", s.handleTableScan).Methods(http.MethodPost)
	scans.HandleFunc("/metadata-classify", s.handleMetadataClassify).Methods(http.MethodPost)

	if s.metrics != nil && s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, s.metrics.Handler()).Methods(http.MethodGet)
	}

	if s.wsHub != nil && s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.wsHub.HandleWebSocket).Methods(http.MethodGet)
		s.router.HandleFunc("/dashboard", web.DashboardHandler(s.config.WebSocket.Path)).Methods(http.MethodGet)
	}
}

// Handler returns the root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the websocket hub and serves HTTP until Stop is called
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting PII scanner API",
		zap.Int("port", s.config.Server.Port),
		zap.Bool("websocket", s.wsHub != nil && s.config.WebSocket.Enabled),
		zap.Bool("metrics", s.metrics != nil && s.config.Metrics.Enabled),
		zap.Bool("rate_limit", s.config.RateLimit.Enabled))

	if s.wsHub != nil {
		go s.wsHub.Run(ctx)
	}
	go s.cleanupLoop(ctx)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping PII scanner API")
	return s.server.Shutdown(ctx)
}

// UpdateConfig applies the reloadable parts of cfg
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()

	s.limiter.Configure(cfg.RateLimit.Enabled, cfg.RateLimit.RequestsPerMin, cfg.RateLimit.Burst)
}

func (s *Server) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// cleanupLoop drops idle rate limit buckets
func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Cleanup(10 * time.Minute); n > 0 {
				s.logger.Debug("Removed idle rate limit buckets", zap.Int("count", n))
			}
		}
	}
}
