package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-planner/api/swagger"
	"github.com/noah-isme/timetable-planner/internal/handler"
	"github.com/noah-isme/timetable-planner/internal/repository"
	"github.com/noah-isme/timetable-planner/internal/service"
	"github.com/noah-isme/timetable-planner/pkg/cache"
	"github.com/noah-isme/timetable-planner/pkg/config"
	"github.com/noah-isme/timetable-planner/pkg/evolution"
	"github.com/noah-isme/timetable-planner/pkg/logger"
)

// @title Timetable Planner API
// @version 1.0.0
// @description Picks one stream per course component so that weekly clashes are minimised.
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("shared cache disabled", zap.Error(err))
		} else {
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "timetable:", logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, redisClient != nil)

	validate := validator.New()
	searchSvc := service.NewTimetableSearchService(service.TimetableSearchConfig{
		MaxSpawn:      cfg.Planner.MaxSpawn,
		MaxComponents: cfg.Planner.MaxComponents,
		Engine: evolution.Config{
			MaxTime:        cfg.Planner.MaxTime,
			MaxIterations:  cfg.Planner.MaxIterations,
			CheckIters:     cfg.Planner.CheckIters,
			InitialParents: cfg.Planner.InitialParents,
			MaxParents:     cfg.Planner.MaxParents,
			BiasTop:        cfg.Planner.BiasTop,
		},
	}, service.NewPolicyScorerFactory(service.ScoringPolicy(cfg.Scoring)), cacheSvc, metrics, validate, logr)

	jobSvc := service.NewSearchJobService(searchSvc, service.SearchJobConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		Retries:    cfg.Jobs.Retries,
		ResultTTL:  cfg.Jobs.ResultTTL,
	}, validate, logr)
	metrics.TrackQueueDepth(jobSvc.QueueDepth)
	jobSvc.Start(ctx)
	defer jobSvc.Stop()

	r := newRouter(cfg, logr, routerDeps{
		metrics:   metrics,
		timetable: handler.NewTimetableHandler(searchSvc, jobSvc),
		observe:   handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
