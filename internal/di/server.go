package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	httpctrl "github.com/jrjohn/tandem-cloud-go/internal/controller/http"
	"github.com/jrjohn/tandem-cloud-go/internal/middleware"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
	"github.com/jrjohn/tandem-cloud-go/internal/resilience"
)

// HTTPServerModule provides HTTP server dependencies
var HTTPServerModule = fx.Module("http_server",
	fx.Provide(provideGinEngine),
	fx.Provide(provideHTTPServer),
	fx.Invoke(registerHTTPRoutes),
	fx.Invoke(startHTTPServer),
)

func provideGinEngine(
	app *config.AppConfig,
	server *config.ServerConfig,
	metrics *observability.MetricsProvider,
	_ *observability.TracingProvider,
	logger *zap.Logger,
) *gin.Engine {
	if !app.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(observability.TracingMiddleware(app.Name))
	router.Use(observability.MetricsMiddleware(metrics))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(server.AllowedOrigins))

	return router
}

func provideHTTPServer(cfg *config.ServerConfig, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Controllers is a struct that holds all HTTP controllers for fx to inject
type Controllers struct {
	fx.In

	Discovery  *httpctrl.DiscoveryController
	Invitation *httpctrl.InvitationController
	Chat       *httpctrl.ChatController
	Health     *httpctrl.HealthController
}

// Guards holds the middleware applied to authenticated routes
type Guards struct {
	fx.In

	Auth      *middleware.AuthMiddleware
	Limiter   *resilience.KeyedLimiter `optional:"true"`
	RateLimit *config.RateLimitConfig
}

func registerHTTPRoutes(router *gin.Engine, controllers Controllers, guards Guards) {
	// Probes and metrics
	controllers.Health.RegisterRoutes(router)

	api := router.Group("", guards.Auth.Authenticate())
	if guards.Limiter != nil {
		api.Use(middleware.RateLimit(guards.Limiter, guards.RateLimit.RequestsPerSecond))
	}

	controllers.Discovery.RegisterRoutes(api)
	controllers.Invitation.RegisterRoutes(api)
	controllers.Chat.RegisterRoutes(api)
}

func startHTTPServer(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting HTTP server", zap.String("address", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
