package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gemini-gateway/config"
	"gemini-gateway/internal/handler"
	"gemini-gateway/internal/metrics"
	"gemini-gateway/internal/middleware"
	"gemini-gateway/internal/services"
	"gemini-gateway/internal/transport/httpdto"
	"gemini-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	WelcomeMessage = "Welcome to the Gemini API Server!"

	shutdownTimeout    = 5 * time.Second
	healthCheckTimeout = 2 * time.Second
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Generate *handler.GenerateHandler
	Auth     *handler.AuthHandler
	Chat     *handler.ChatHandler
}

// HealthCheck is one dependency probed by GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// New builds the engine. m and gatherer may be nil, in which case nothing is
// recorded and /metrics is not mounted.
func New(cfg *config.Config, l *logger.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	switch cfg.Environment {
	case config.ProductionEnv, ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	if l == nil {
		l = logger.Nop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine:   engine,
		config:   cfg,
		logger:   l,
		metrics:  m,
		gatherer: gatherer,
	}
}

// Handler exposes the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, checks ...HealthCheck) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.AllowedOrigins))
	s.engine.Use(middleware.BodyLimitMiddleware(s.config.MaxBodyBytes))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.MetricsMiddleware(s.metrics))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, WelcomeMessage)
	})

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", s.health(checks))

	if s.gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.engine.POST("/generate", handlers.Generate.Generate)

	if handlers.Auth != nil {
		auth := s.engine.Group("/api/auth")
		{
			auth.POST("/register", handlers.Auth.Register)
			auth.POST("/login", handlers.Auth.Login)
			auth.POST("/refresh", handlers.Auth.Refresh)
			auth.POST("/logout", middleware.AuthMiddleware(authService), handlers.Auth.Logout)
			auth.GET("/me", middleware.AuthMiddleware(authService), handlers.Auth.Me)
		}
	}

	if handlers.Chat != nil {
		chats := s.engine.Group("/api/chat", middleware.AuthMiddleware(authService))
		{
			chats.POST("", handlers.Chat.Create)
			chats.GET("", handlers.Chat.List)
			chats.POST("/uploads", handlers.Chat.Upload)
			chats.GET("/:id", handlers.Chat.Get)
			chats.PUT("/:id", handlers.Chat.Update)
			chats.DELETE("/:id", handlers.Chat.Delete)
		}
	}
}

func (s *Server) health(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				s.logger.ErrorCtx(c.Request.Context(), "health check failed",
					zap.String("dependency", hc.Name),
					zap.Error(err),
				)
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(hc.Name+" unavailable", "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	}
}

// Start serves until SIGINT/SIGTERM and then drains in-flight requests.
func (s *Server) Start() error {
	serveErr := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		s.logger.Errorf("Error in starting the server: %s", err)
		return err
	case <-quit:
	}

	s.logger.Infof("Quitting signal received.. Shutting down within %s", shutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorf("Error in the graceful shutdown of the server: %s", err)
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
