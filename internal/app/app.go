package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summate/core/internal/config"
	"github.com/summate/core/internal/database"
	"github.com/summate/core/internal/middleware"
	"github.com/summate/core/internal/modules/auth"
	"github.com/summate/core/internal/modules/credits"
	"github.com/summate/core/internal/modules/generation"
	"github.com/summate/core/internal/modules/summary"
	"github.com/summate/core/internal/modules/user"
	"github.com/summate/core/internal/pkg/cache"
	"github.com/summate/core/internal/pkg/cron"
	"github.com/summate/core/internal/pkg/redis"
)

// App wires configuration, storage, cache and HTTP routing together.
type App struct {
	Config    *config.AppConfig
	Logger    *zap.Logger
	DB        *gorm.DB
	Cache     *cache.Tier
	Router    *gin.Engine
	Scheduler *cron.Scheduler

	redisClient *redis.Client
	userSvc     *user.Service
}

// New builds the application. A redis that cannot be reached at startup is
// not fatal; the cache starts in its in-process mode instead.
func New(cfg *config.AppConfig, logger *zap.Logger) (*App, error) {
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var redisClient *redis.Client
	if client, err := redis.Connect(cfg.RedisURL); err != nil {
		logger.Warn("redis unavailable at startup", zap.Error(err))
	} else {
		redisClient = client
		logger.Info("redis connected")
	}

	tier := cache.NewTier(redisClient.Raw(), logger)

	a := &App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Cache:       tier,
		Scheduler:   cron.New(),
		redisClient: redisClient,
	}

	a.buildRouter()
	a.registerJobs()
	return a, nil
}

func (a *App) buildRouter() {
	if !a.Config.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(a.Logger))
	router.Use(cors.New(a.corsConfig()))
	router.MaxMultipartMemory = generation.MaxUploadBytes

	a.Router = router
	a.registerRoutes()
}

func (a *App) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowCredentials = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	if len(a.Config.AllowedOrigins) > 0 {
		cfg.AllowOrigins = a.Config.AllowedOrigins
	} else {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func (a *App) registerRoutes() {
	ledger := credits.NewLedger(a.DB, a.Logger)
	summarySvc := summary.NewService(a.DB, a.Cache, a.Logger)
	authSvc := auth.NewService(a.DB, a.Config.JWTSecret)
	userSvc := user.NewService(a.DB, a.Logger)

	model, err := generation.NewModel(a.Config.AI.Provider)
	if err != nil {
		a.Logger.Warn("ai provider not configured, generation will fail", zap.Error(err))
	}
	generationSvc := generation.NewService(ledger, model, a.Cache, a.Logger)

	authHandler := auth.NewHandler(authSvc)
	authHandler.RegisterRoutes(a.Router)

	authed := a.Router.Group("/", middleware.Auth(a.Config.JWTSecret))
	authHandler.RegisterProtected(authed)
	summary.NewHandler(summarySvc).RegisterRoutes(authed)
	generation.NewHandler(generationSvc, a.Config.UploadsDir).RegisterRoutes(authed)

	admin := a.Router.Group("/",
		middleware.Auth(a.Config.JWTSecret),
		middleware.RequireRole("admin"))
	user.NewHandler(userSvc).RegisterRoutes(admin)

	a.userSvc = userSvc
}

// registerJobs wires the background jobs onto the scheduler. Start happens
// in Run so tests can build an App without side effects.
func (a *App) registerJobs() {
	a.Scheduler.Register(cron.Job{
		Name:     "deactivate-inactive-users",
		Interval: 24 * time.Hour,
		Fn: func(ctx context.Context) error {
			_, err := a.userSvc.DeactivateInactive(time.Now())
			return err
		},
	})
}

// Start launches background jobs.
func (a *App) Start(ctx context.Context) {
	a.Scheduler.Start(ctx)
}

// Close releases held connections.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
