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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/csl-management-api/api/swagger"
	"github.com/noah-isme/csl-management-api/internal/handler"
	internalmiddleware "github.com/noah-isme/csl-management-api/internal/middleware"
	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/internal/repository"
	"github.com/noah-isme/csl-management-api/internal/service"
	"github.com/noah-isme/csl-management-api/pkg/cache"
	"github.com/noah-isme/csl-management-api/pkg/config"
	"github.com/noah-isme/csl-management-api/pkg/database"
	"github.com/noah-isme/csl-management-api/pkg/export"
	"github.com/noah-isme/csl-management-api/pkg/jobs"
	"github.com/noah-isme/csl-management-api/pkg/keys"
	"github.com/noah-isme/csl-management-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/csl-management-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/csl-management-api/pkg/middleware/requestid"
	"github.com/noah-isme/csl-management-api/pkg/ratelimit"
	"github.com/noah-isme/csl-management-api/pkg/storage"
)

// @title CSL Management API
// @version 1.0.0
// @description Certificate issuance, revocation and public verification for the CSL training institute.
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// Redis only backs caching and rate limiting; both degrade without it.
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	hashKey, err := keys.Derive(cfg.Certificates.HashSecret, keys.PurposeVerificationHash)
	if err != nil {
		return fmt.Errorf("derive verification key: %w", err)
	}
	downloadKey, err := keys.Derive(cfg.Certificates.SignedURLSecret, keys.PurposeDownloadURL)
	if err != nil {
		return fmt.Errorf("derive download key: %w", err)
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		return fmt.Errorf("init document storage: %w", err)
	}

	metricsSvc := service.NewMetricsService()

	certificateRepo := repository.NewCertificateRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && redisClient != nil)
	statsSvc := service.NewStatsService(certificateRepo, sequenceRepo, cacheSvc, cfg.Stats.CacheTTL, logr)
	hasher := service.NewVerificationHasher(hashKey)
	documentSvc := service.NewDocumentService(
		export.NewPDFExporter(),
		fileStorage,
		storage.NewSignedURLSigner(downloadKey, cfg.Certificates.SignedURLTTL),
		service.DocumentConfig{
			InstituteName: cfg.Certificates.InstituteName,
			PublicBaseURL: cfg.Certificates.PublicBaseURL,
			APIPrefix:     cfg.APIPrefix,
		},
	)

	certificateSvc := service.NewCertificateService(service.CertificateServiceDeps{
		Tx:           database.NewTxManager(db),
		Certificates: certificateRepo,
		Students:     studentRepo,
		Courses:      courseRepo,
		Audit:        auditRepo,
		Allocator:    service.NewNumberAllocator(sequenceRepo, metricsSvc, logr),
		Hasher:       hasher,
		Documents:    documentSvc,
		Stats:        statsSvc,
		Metrics:      metricsSvc,
		Logger:       logr,
	})
	verificationSvc := service.NewVerificationService(certificateRepo, hasher, metricsSvc, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	documentQueue := jobs.NewQueue("certificate-documents", certificateSvc.ProcessDocumentJob, jobs.QueueConfig{
		Workers:    cfg.Certificates.WorkerConcurrency,
		MaxRetries: cfg.Certificates.WorkerRetries,
		RetryDelay: cfg.Certificates.WorkerRetryDelay,
		Logger:     logr,
	})
	certificateSvc.SetDocumentQueue(documentQueue)
	documentQueue.Start(ctx)
	defer documentQueue.Stop()

	sweeper := service.NewDocumentSweeper(certificateSvc, cfg.Certificates.SweepSchedule, cfg.Certificates.SweepMinAge, logr)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start document sweeper: %w", err)
	}
	defer sweeper.Stop()

	verifyLimiter := ratelimit.NewFixedWindow(redisClient, "ratelimit", cfg.Verification.RateLimit, cfg.Verification.RateWindow)

	certificateHandler := handler.NewCertificateHandler(certificateSvc, statsSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
		"database": db.PingContext,
		"redis":    cacheRepo.Ping,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	verification := api.Group("/verification")
	verification.Use(internalmiddleware.RateLimit(verifyLimiter, "verify", logr))
	verification.GET("/verify/:cslNumber", verificationHandler.Verify)

	api.GET("/certificates/documents/:token", certificateHandler.SignedDownload)

	admin := api.Group("/certificates")
	admin.Use(internalmiddleware.JWT(authSvc))
	admin.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	admin.POST("/generate", certificateHandler.Issue)
	admin.GET("", certificateHandler.List)
	admin.GET("/stats", certificateHandler.Stats)
	admin.GET("/:cslNumber", certificateHandler.Get)
	admin.PATCH("/:cslNumber/revoke", certificateHandler.Revoke)
	admin.POST("/:cslNumber/regenerate", certificateHandler.Regenerate)
	admin.GET("/:cslNumber/download", certificateHandler.Download)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
