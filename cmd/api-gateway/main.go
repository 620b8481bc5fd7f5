package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/danuarta/hr-promotion-api/api/swagger"
	"github.com/danuarta/hr-promotion-api/internal/handler"
	"github.com/danuarta/hr-promotion-api/internal/middleware"
	"github.com/danuarta/hr-promotion-api/internal/models"
	"github.com/danuarta/hr-promotion-api/internal/repository"
	"github.com/danuarta/hr-promotion-api/internal/service"
	"github.com/danuarta/hr-promotion-api/pkg/cache"
	"github.com/danuarta/hr-promotion-api/pkg/config"
	"github.com/danuarta/hr-promotion-api/pkg/database"
	"github.com/danuarta/hr-promotion-api/pkg/jobs"
	"github.com/danuarta/hr-promotion-api/pkg/logger"
	corsmiddleware "github.com/danuarta/hr-promotion-api/pkg/middleware/cors"
	reqidmiddleware "github.com/danuarta/hr-promotion-api/pkg/middleware/requestid"
)

// @title HR Promotion API
// @version 1.0.0
// @description Promotion eligibility, exam cooldown and probation tracking for HR administrators
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	cacheEnabled := true
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheEnabled = false
	}

	// Repositories.
	ruleRepo := repository.NewRuleRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	examRepo := repository.NewExamRepository(db)
	probationRepo := repository.NewProbationRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cacheEnabled {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, true)
	}

	// Services.
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hr-promotion-api",
	})

	ruleSvc := service.NewRuleService(ruleRepo, nil, logr)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ruleSvc.LoadCatalog(startupCtx); err != nil {
		cancelStartup()
		logr.Sugar().Fatalw("failed to load rule catalog", "error", err)
	}
	cancelStartup()

	debouncer := jobs.NewDebouncer(cfg.Evaluation.DebounceInterval, logr)
	defer debouncer.Close()

	evaluationSvc := service.NewEvaluationService(employeeRepo, ruleSvc, cacheSvc, metricsSvc, debouncer, logr)
	examSvc := service.NewExamService(examRepo, evaluationSvc, ruleSvc, evaluationSvc, metricsSvc, logr)
	probationSvc := service.NewProbationService(probationRepo, evaluationSvc, cfg.Probation.ExpiryWindowDays, cfg.Probation.EvaluationWindowDays, logr)
	reportSvc := service.NewReportService(evaluationSvc, probationSvc, cacheSvc, cfg.Reports.CacheTTL, logr).WithAttempts(examRepo)

	recomputeQueue := jobs.NewQueue("exam-recompute", func(ctx context.Context, job jobs.Job) error {
		_, err := examSvc.RecomputeAll(ctx)
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Recompute.WorkerConcurrency,
		MaxRetries: cfg.Recompute.WorkerRetries,
		RetryDelay: cfg.Recompute.RetryDelay,
		Logger:     logr,
	})
	recomputeQueue.Start(context.Background())
	defer recomputeQueue.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	ruleHandler := handler.NewRuleHandler(ruleSvc)
	employeeHandler := handler.NewEmployeeHandler(evaluationSvc)
	examHandler := handler.NewExamHandler(examSvc, recomputeQueue)
	probationHandler := handler.NewProbationHandler(probationSvc)
	reportHandler := handler.NewReportHandler(reportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	rules := protected.Group("/rules")
	{
		rules.GET("", ruleHandler.List)
		rules.GET("/:id", ruleHandler.Get)
		rules.POST("", adminOnly, ruleHandler.Create)
		rules.PUT("/:id", adminOnly, ruleHandler.Update)
		rules.DELETE("/:id", adminOnly, ruleHandler.Delete)
	}

	employees := protected.Group("/employees")
	{
		employees.GET("", employeeHandler.List)
		employees.GET("/:id", employeeHandler.Get)
		employees.POST("", employeeHandler.Create)
		employees.PUT("/:id", employeeHandler.Update)
		employees.PUT("/:id/metrics", employeeHandler.PutMetrics)
		employees.PATCH("/:id/metrics", employeeHandler.PatchMetrics)
		employees.GET("/:id/exams", examHandler.History)
		employees.POST("/:id/exams", examHandler.Record)
		employees.GET("/:id/exams/cooldown", examHandler.Cooldown)
	}

	protected.POST("/exams/recompute", adminOnly, examHandler.Recompute)

	probations := protected.Group("/probations")
	{
		probations.GET("", probationHandler.List)
		probations.GET("/alerts", probationHandler.Alerts)
		probations.GET("/:id", probationHandler.Get)
		probations.POST("", probationHandler.Create)
		probations.PUT("/:id", probationHandler.Update)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/eligibility", reportHandler.EligibilityRoster)
		reports.GET("/probation", reportHandler.ProbationAlerts)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
