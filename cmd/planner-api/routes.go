package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-planner/internal/middleware"
	"github.com/noah-isme/timetable-planner/internal/service"
	"github.com/noah-isme/timetable-planner/pkg/config"
	"github.com/noah-isme/timetable-planner/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-planner/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-planner/pkg/middleware/requestid"
)

type routerDeps struct {
	metrics   *service.MetricsService
	timetable *handler.TimetableHandler
	observe   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", deps.observe.Health)
	r.GET("/ready", deps.observe.Ready)
	r.GET("/metrics", deps.observe.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", deps.observe.Summary)

	timetable := api.Group("/timetable")
	timetable.POST("/search", deps.timetable.Search)
	timetable.DELETE("/cache", deps.timetable.PurgeCache)
	timetable.POST("/search/jobs", deps.timetable.SubmitJob)
	timetable.GET("/search/jobs/:id", deps.timetable.GetJob)

	return r
}
