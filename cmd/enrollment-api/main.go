package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/enrollment-api/api/swagger"
	"github.com/noah-isme/enrollment-api/internal/enrollment"
	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/internal/rules"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/pkg/cache"
	"github.com/noah-isme/enrollment-api/pkg/config"
	"github.com/noah-isme/enrollment-api/pkg/database"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
	"github.com/noah-isme/enrollment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/requestid"
)

// @title Enrollment API
// @version 1.0.0
// @description Validates and commits course enrollments against academic rules
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runTokenCommand(cfg, os.Args[2:], os.Stdout); err != nil {
			log.Fatalf("token: %v", err)
		}
		return
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	var cacheClient redis.Cmdable
	if redisClient != nil {
		defer redisClient.Close()
		cacheClient = redisClient
	}

	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	terms := repository.NewTermRepository(db)
	offerings := repository.NewOfferingRepository(db)
	registrations := repository.NewRegistrationRepository(db)
	decisions := repository.NewDecisionRepository(db)
	cacheRepo := repository.NewCacheRepository(cacheClient, logger.ServiceName)

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.GPACache.TTL, logr, cfg.GPACache.Enabled && cacheClient != nil)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience})
	validate := validator.New()

	audit := service.NewAuditService(decisions, metrics, logr)
	var auditQueue *jobs.Queue
	if cfg.Audit.Enabled {
		auditQueue = jobs.NewQueue("enrollment-audit", audit.Handle, jobs.QueueConfig{
			Workers:    cfg.Audit.Workers,
			MaxRetries: cfg.Audit.Retries,
			RetryDelay: cfg.Audit.RetryDelay,
			Logger:     logr,
			OnDropped:  audit.OnDropped,
		})
		// Detached from the signal context so buffered decisions drain on shutdown.
		auditQueue.Start(context.Background())
		audit.UseQueue(auditQueue)
	}

	engine := rules.NewEngine(rules.Policy{
		PassingGrade:       cfg.Enrollment.PassingGrade,
		Tiers:              rules.DefaultPolicy().Tiers,
		MaxUnits:           cfg.Enrollment.MaxUnits,
		UnitsWithoutGPA:    cfg.Enrollment.UnitsWithoutGPA,
		IncludeCurrentTerm: cfg.Enrollment.CheckCurrentTerm,
	})
	enrollmentSvc := service.NewEnrollmentService(students, offerings, registrations, terms, enrollment.NewController(engine), audit, cacheSvc, metrics,
		service.EnrollmentConfig{
			ActiveTermID: cfg.Enrollment.ActiveTermID,
			MaxOfferings: cfg.Enrollment.MaxOfferingsPerReq,
			CacheTTL:     cfg.GPACache.TTL,
		}, validate, logr)
	transcriptSvc := service.NewTranscriptService(students, courses, terms, cacheSvc, cfg.GPACache.TTL, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), tokens, handler.NewEnrollmentHandler(enrollmentSvc), handler.NewTranscriptHandler(transcriptSvc), metricsHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	if auditQueue != nil {
		if err := auditQueue.Stop(shutdownCtx); err != nil {
			logr.Warn("audit queue did not drain", zap.Error(err))
		}
	}
}

func registerRoutes(api *gin.RouterGroup, tokens middleware.TokenValidator, enrollments *handler.EnrollmentHandler, transcripts *handler.TranscriptHandler, metrics *handler.MetricsHandler) {
	admin := string(models.RoleAdmin)
	registrar := string(models.RoleRegistrar)

	students := api.Group("/students/:id", middleware.JWT(tokens))
	students.POST("/enrollments", middleware.RBAC(admin, registrar, middleware.Self), enrollments.Enroll)
	students.POST("/enrollments/validate", middleware.RBAC(admin, registrar, middleware.Self), enrollments.Validate)
	students.GET("/registrations", middleware.RBAC(admin, registrar, middleware.Self), enrollments.ListRegistrations)
	students.GET("/registrations/export", middleware.RBAC(admin, registrar, middleware.Self), enrollments.ExportRegistrations)
	students.POST("/transcript", middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar), transcripts.AddRecord)
	students.GET("/gpa", middleware.RBAC(admin, registrar, middleware.Self), transcripts.GPA)

	api.GET("/metrics/summary", middleware.JWT(tokens), middleware.RequireRoles(models.RoleAdmin), metrics.Summary)
}
