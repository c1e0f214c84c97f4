package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/TextWarden/internal/api/http"
	"github.com/GriffinCanCode/TextWarden/internal/api/middleware"
	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/config"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TextWarden/internal/providers"
)

// Version reported by the root endpoint
const Version = "1.0.0"

// Server wraps the proxy HTTP server and its dependencies
type Server struct {
	router  *gin.Engine
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	stop    chan struct{}
}

// Option customises server construction
type Option func(*options)

type options struct {
	provider analysis.Provider
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// WithProvider replaces the provider built from configuration
func WithProvider(p analysis.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithLogger replaces the logger built from configuration
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics replaces the default metrics registry
func WithMetrics(m *monitoring.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewServer creates a new proxy server instance.
// The proxy always calls the model directly; PROVIDER only affects clients.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
			File:        cfg.Logging.File,
			MaxSizeMB:   cfg.Logging.MaxSizeMB,
			MaxBackups:  cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing TextWarden proxy",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("model", cfg.Provider.Model),
	)

	metrics := o.metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}

	provider := o.provider
	if provider == nil {
		pc := cfg.Provider
		pc.Kind = providers.KindGemini
		p, err := providers.New(pc, "", logger)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	// Keys travel with each request, nothing is cached between users
	orchestrator := analysis.New(provider, analysis.ContextCredential(), nil,
		analysis.WithMinLength(1),
		analysis.WithLogger(logger.Named("analysis")),
		analysis.WithMetrics(metrics),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(monitoring.Middleware(metrics))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORS.AllowOrigins
	}
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}
	router.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	handlers := apihttp.NewHandlers(orchestrator, logger, Version)
	apihttp.Register(router, handlers, metrics.Handler())

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		stop:    make(chan struct{}),
	}, nil
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Addr is the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.metrics.StartUptime(s.stop)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops background work and flushes the logger
func (s *Server) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return s.logger.Close()
}
