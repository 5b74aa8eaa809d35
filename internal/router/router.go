// Package router wires handlers, middleware and services into an echo
// instance.  All API routes live under /api; /healthz stays at the root.
package router

import (
	"database/sql"

	charmlog "github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/writing-practice-api/internal/config"
	"github.com/iliyamo/writing-practice-api/internal/handler"
	"github.com/iliyamo/writing-practice-api/internal/metrics"
	"github.com/iliyamo/writing-practice-api/internal/middleware"
	"github.com/iliyamo/writing-practice-api/internal/model"
	"github.com/iliyamo/writing-practice-api/internal/service"
	"github.com/iliyamo/writing-practice-api/internal/validate"
)

// Deps is everything the routes need.  Redis may be nil, which turns the
// cache and the rate limiter into pass-through middleware.  Metrics may be
// nil, which drops /metrics and request instrumentation.
type Deps struct {
	DB          *sql.DB
	Redis       *redis.Client
	Log         *charmlog.Logger
	Metrics     *metrics.Metrics
	JWTSecret   string
	CORSOrigins []string
	Cache       config.CacheConfig
	RateLimit   config.RateLimitConfig

	Auth  *service.AuthService
	Ideas *service.IdeaService
	Texts *service.TextService
}

// New builds the echo instance with the global middleware stack and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Log)

	e.Use(echomw.Recover())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))

	e.GET("/healthz", handler.NewHealth(d.DB).Check)

	api := e.Group("/api")
	guard := middleware.JWTAuth(d.JWTSecret, d.Auth)
	RegisterAuth(api, handler.NewAuthHandler(d.Auth), guard, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	RegisterIdeas(api, handler.NewIdeaHandler(d.Ideas), guard, middleware.NewRedisCache(d.Cache, d.Redis))
	RegisterTexts(api, handler.NewTextHandler(d.Texts), guard)
	return e
}

// RegisterAuth mounts /api/auth.  Register and login are public and rate limited.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, guard, limiter echo.MiddlewareFunc) {
	g := api.Group("/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, guard)
}

// RegisterIdeas mounts /api/ideas.  Reads need any valid token and go
// through the cache; writes also need ADMIN.
func RegisterIdeas(api *echo.Group, h *handler.IdeaHandler, guard, cache echo.MiddlewareFunc) {
	g := api.Group("/ideas", guard)
	admin := middleware.RequireRole(model.RoleAdmin)

	g.GET("/random", h.Random)
	g.GET("", h.List, cache)
	g.GET("/:id", h.Get, cache)
	g.POST("", h.Create, admin)
	g.PUT("/:id", h.Update, admin)
	g.DELETE("/:id", h.Delete, admin)
}

// RegisterTexts mounts /api/texts; every route is scoped to the caller.
func RegisterTexts(api *echo.Group, h *handler.TextHandler, guard echo.MiddlewareFunc) {
	g := api.Group("/texts", guard)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
