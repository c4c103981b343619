// Package portal assembles the academia portal HTTP server.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/internal/config"
	"github.com/songzhibin97/academia/internal/portal/auth"
	"github.com/songzhibin97/academia/internal/portal/handler"
	"github.com/songzhibin97/academia/internal/portal/middleware"
	"github.com/songzhibin97/academia/internal/portal/service"
	"github.com/songzhibin97/academia/internal/ratelimit"
	"github.com/songzhibin97/academia/pkg/log"
	"github.com/songzhibin97/academia/pkg/portal"
)

// Server represents the academia portal server
type Server struct {
	config     *config.Config
	repo       portal.Repository
	throttle   *ratelimit.LoginThrottle
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	errs       chan error
	logger     log.Logger
	mu         sync.Mutex
	running    bool
}

// NewServer wires the API over repo. The server does not own repo.
func NewServer(cfg *config.Config, repo portal.Repository) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository cannot be nil")
	}

	jwtManager, err := auth.NewJWTManager(
		cfg.Portal.JWT.Secret,
		cfg.Portal.JWT.Algorithm,
		cfg.Portal.JWT.ExpiresIn,
		cfg.Portal.JWT.Issuer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT manager: %w", err)
	}

	s := &Server{
		config: cfg,
		repo:   repo,
		errs:   make(chan error, 1),
		logger: log.Component("portal"),
	}

	if cfg.Portal.Throttle.Enabled {
		s.throttle, err = newThrottle(cfg.Portal.Throttle)
		if err != nil {
			return nil, fmt.Errorf("failed to create login throttle: %w", err)
		}
	}

	services := service.New(repo)
	errs := middleware.NewErrorResponder(cfg.Portal.Errors.LegacyStatus)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID())
	if cfg.Tracing.Enabled {
		engine.Use(middleware.Tracing())
	}

	authOpts := []handler.AuthOption{handler.WithThrottle(s.throttle)}
	if cfg.Metrics.Enabled {
		metrics, err := middleware.NewPrometheusMiddleware(cfg.Metrics)
		if err != nil {
			s.closeThrottle()
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		engine.Use(metrics.Handler())
		engine.GET(cfg.Metrics.Path, metrics.MetricsHandler())
		authOpts = append(authOpts, handler.WithLoginFailureHook(metrics.LoginFailed))
	}
	if cfg.Logging.AccessLog {
		engine.Use(middleware.AccessLog(log.Component("access")))
	}
	if cfg.Portal.CORS.Enabled {
		engine.Use(middleware.CORS(cfg.Portal.CORS))
	}

	authHandler := handler.NewAuthHandler(services.Accounts, auth.NewPasswordHasher(), jwtManager, errs, authOpts...)
	handler.New(services, repo, authHandler, errs).RegisterRoutes(engine, middleware.NewJWTMiddleware(jwtManager))

	s.engine = engine
	s.httpServer = &http.Server{
		Addr:         cfg.Portal.Address,
		Handler:      engine,
		ReadTimeout:  cfg.Portal.ReadTimeout,
		WriteTimeout: cfg.Portal.WriteTimeout,
	}

	return s, nil
}

func newThrottle(cfg config.PortalThrottleConfig) (*ratelimit.LoginThrottle, error) {
	var storage ratelimit.Storage
	switch cfg.Storage {
	case "", "memory":
		storage = ratelimit.NewMemoryStorage()
	case "redis":
		rs, err := ratelimit.NewRedisStorage(ratelimit.RedisConfig{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			Timeout:   cfg.Redis.Timeout,
		})
		if err != nil {
			return nil, err
		}
		storage = rs
	default:
		return nil, fmt.Errorf("unsupported throttle storage: %s", cfg.Storage)
	}

	throttle, err := ratelimit.NewLoginThrottle(storage, cfg.MaxAttempts, cfg.Window)
	if err != nil {
		storage.Close()
		return nil, err
	}
	return throttle, nil
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listen address and serves in the background. A bind
// failure is returned; later serve failures are delivered on Errors.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("portal server is already running")
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.running = true

	s.logger.Info("Portal server starting", log.String("address", ln.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Portal server error", log.Error(err))
			s.errs <- err
		}
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Errors reports a failure of the background serve loop.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Stop gracefully shuts the server down and releases the login throttle.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.closeThrottle()
		return nil
	}
	s.running = false

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Portal server shutdown error", log.Error(err))
	}
	s.closeThrottle()

	s.logger.Info("Portal server stopped")
	return err
}

func (s *Server) closeThrottle() {
	if s.throttle != nil {
		if err := s.throttle.Close(); err != nil {
			s.logger.Warn("Failed to close login throttle", log.Error(err))
		}
		s.throttle = nil
	}
}
