package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/skinopsis/prescription-api/api/swagger"
	"github.com/skinopsis/prescription-api/internal/handler"
	"github.com/skinopsis/prescription-api/internal/middleware"
	"github.com/skinopsis/prescription-api/internal/repository"
	"github.com/skinopsis/prescription-api/internal/service"
	"github.com/skinopsis/prescription-api/pkg/cache"
	"github.com/skinopsis/prescription-api/pkg/config"
	"github.com/skinopsis/prescription-api/pkg/llm"
	"github.com/skinopsis/prescription-api/pkg/logger"
	corsmiddleware "github.com/skinopsis/prescription-api/pkg/middleware/cors"
	reqidmiddleware "github.com/skinopsis/prescription-api/pkg/middleware/requestid"
	"github.com/skinopsis/prescription-api/pkg/storage"
)

// @title Prescription API
// @version 1.0.0
// @description Clinical transcript to structured prescription document pipeline
// @BasePath /api
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.NewLocalStorage(cfg.Storage.DataDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}

	prescriptionRepo, err := repository.NewPrescriptionRepository(cfg.Storage.DataDir, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init prescription repository", "error", err)
	}

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
		}
	}

	var completionClient service.CompletionClient
	if cfg.OpenAI.APIKey != "" {
		completionClient = llm.NewOpenAIClient(llm.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Timeout:     cfg.OpenAI.Timeout,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
	}
	extractionSvc := service.NewExtractionService(completionClient, metricsSvc, logr)

	converter := service.NewSofficeConverter(cfg.Documents.SofficeBin)
	documentSvc, err := service.NewDocumentService(store, converter, service.DocumentServiceConfig{
		TemplatePath:   cfg.Documents.TemplatePath,
		ConvertTimeout: cfg.Documents.ConvertTimeout,
	}, metricsSvc, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document service", "error", err)
	}

	prescriptionSvc := service.NewPrescriptionService(extractionSvc, documentSvc, prescriptionRepo, cacheSvc, logr)
	registerSvc := service.NewRegisterService(prescriptionRepo, logr)

	prescriptionHandler := handler.NewPrescriptionHandler(prescriptionSvc)
	healthHandler := handler.NewHealthHandler(prescriptionSvc)
	exportHandler := handler.NewExportHandler(registerSvc, cfg.Register.ExportEnabled)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/health", healthHandler.Health)

		api.POST("/prescriptions", prescriptionHandler.Create)
		api.GET("/prescriptions", prescriptionHandler.List)
		api.GET("/prescriptions/export", exportHandler.Export)
		api.GET("/prescriptions/:id", prescriptionHandler.Get)
		api.POST("/prescriptions/:id/render", prescriptionHandler.Render)
		api.POST("/prescriptions/:id/approve", prescriptionHandler.Approve)
		api.GET("/prescriptions/:id/audit", prescriptionHandler.AuditLog)
	}

	// Generated artifacts are served statically so preview and final PDF
	// links resolve without a dedicated download endpoint.
	r.Static("/data", store.BaseDir())
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
