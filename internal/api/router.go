package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/apiusers/user-service/docs"
	"github.com/apiusers/user-service/internal/api/handler"
	"github.com/apiusers/user-service/internal/api/metrics"
	"github.com/apiusers/user-service/internal/api/middleware"
	"github.com/apiusers/user-service/internal/core/ports"
	"github.com/apiusers/user-service/internal/core/service"
	redisstore "github.com/apiusers/user-service/internal/infrastructure/db/redis"
	infrahttp "github.com/apiusers/user-service/internal/infrastructure/http"
	"github.com/apiusers/user-service/internal/infrastructure/http/handlers"
)

// Store is the record store as the router needs it.
type Store interface {
	ports.UserRepositoryProvider
	handlers.Pinger
}

// Deps carries everything NewRouter wires together.
type Deps struct {
	Store  Store
	Redis  *redis.Client // nil disables Idempotency-Key replay
	Logger zerolog.Logger

	IdempotencyTTL time.Duration

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = handler.NewValidator()

	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "users",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper:    skipOperational,
	}))

	// --- Dependencies ---
	var idem service.IdempotencyStore
	if deps.Redis != nil {
		idem = redisstore.NewIdempotencyStore(deps.Redis, deps.IdempotencyTTL)
	}
	userService := service.NewUserService(deps.Store, idem, metrics.UserRecorder{}, deps.Logger)
	userHandler := handler.NewUserHandler(userService)

	// --- Users ---
	users := e.Group("/users")
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create, middleware.IdempotencyKey(handler.HeaderIdempotencyKey))
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Operational endpoints ---
	infrahttp.RegisterProbes(e, deps.Store, deps.Redis)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func skipOperational(c echo.Context) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}
