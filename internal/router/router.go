// Package router wires handlers and middleware into an echo instance.
package router

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/config"
	"github.com/iliyamo/asset-management/internal/handler"
	"github.com/iliyamo/asset-management/internal/middleware"
	"github.com/iliyamo/asset-management/internal/model"
	"github.com/iliyamo/asset-management/internal/repository"
	"github.com/iliyamo/asset-management/internal/utils"
)

// Deps are the process-wide resources the API is built from. Redis may be
// nil, which disables rate limiting and the catalog cache. Events may be
// nil, which disables event publishing.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Log       *logrus.Logger
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Events    handler.EventPublisher
}

// New returns a ready to serve echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = utils.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Cfg.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))

	users := repository.NewUserRepo(d.DB)
	cache := middleware.NewResponseCache(d.Cache, d.Redis, d.Log)
	authH := handler.NewAuthHandler(d.Cfg, users)
	serviceH := handler.NewServiceHandler(repository.NewServiceRepo(d.DB), cache, d.Events, d.Log)

	// public
	e.GET("/healthz", handler.Health)
	e.GET("/healthz/db", handler.NewHealthHandler(d.DB).DB)
	e.POST("/register", authH.Register)
	e.POST("/login", authH.Login)
	e.GET(handler.CatalogRoute, serviceH.List, cache.Middleware())

	auth := middleware.JWTAuth(d.Cfg.JWTSecret, users)
	company := middleware.RequireRole(model.RoleCompany)

	e.GET("/profile", authH.Profile, auth)
	registerUsers(e, handler.NewUserHandler(d.Cfg, users), auth, company)
	registerAssets(e, handler.NewAssetHandler(repository.NewAssetRepo(d.DB), d.Events, d.Log), auth, company)
	registerMaintenance(e, handler.NewMaintenanceHandler(repository.NewMaintenanceRepo(d.DB), d.Events, d.Log), auth)
	registerServices(e, serviceH, auth, company)
	return e
}
