package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/NKT-Anh/datn-eduManager-sub003/api/swagger"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/handler"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/middleware"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/repository"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/service"
	"github.com/NKT-Anh/datn-eduManager-sub003/pkg/cache"
	"github.com/NKT-Anh/datn-eduManager-sub003/pkg/config"
	"github.com/NKT-Anh/datn-eduManager-sub003/pkg/database"
	"github.com/NKT-Anh/datn-eduManager-sub003/pkg/logger"
	corsmiddleware "github.com/NKT-Anh/datn-eduManager-sub003/pkg/middleware/cors"
	reqidmiddleware "github.com/NKT-Anh/datn-eduManager-sub003/pkg/middleware/requestid"
)

// @title Exam Room Assignment API
// @version 1.0.0
// @description Seating group partitioning, room mapping, seat numbering and invigilator assignment for school exams.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Engine.RoomCacheEnabled {
		redisClient, redisErr := cache.NewRedis(cfg.Redis)
		if redisErr != nil {
			logr.Sugar().Warnw("redis unavailable, room availability cache disabled", "error", redisErr)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Engine.RoomCacheTTL, logr, true)
		}
	}

	examRepo := repository.NewExamRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	groupRepo := repository.NewSeatingGroupRepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	seatRepo := repository.NewSeatRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	validate := validator.New()

	partitionSvc := service.NewPartitionService(examRepo, studentRepo, groupRepo, db, validate, logr, cfg.Engine.DefaultMaxPerGroup)
	roomPoolSvc := service.NewRoomPoolService(roomRepo, mappingRepo, cacheSvc, metricsSvc, validate, logr, cfg.Engine.RoomCacheTTL)
	slotMapperSvc := service.NewSlotMapperService(examRepo, groupRepo, mappingRepo, roomPoolSvc, db, metricsSvc, validate, logr)
	seatSvc := service.NewSeatService(examRepo, mappingRepo, groupRepo, roomRepo, seatRepo, db, metricsSvc, logr)
	invigilatorSvc := service.NewInvigilatorService(examRepo, mappingRepo, teacherRepo, db, metricsSvc, validate, logr, cfg.Engine.RequireAssistant)

	groupHandler := handler.NewGroupHandler(partitionSvc)
	mappingHandler := handler.NewMappingHandler(slotMapperSvc)
	seatHandler := handler.NewSeatHandler(seatSvc)
	invigilatorHandler := handler.NewInvigilatorHandler(invigilatorSvc)
	roomHandler := handler.NewRoomHandler(roomPoolSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if pingErr := db.PingContext(c.Request.Context()); pingErr != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/exams/:id/groups", groupHandler.Partition)
		api.GET("/exams/:id/groups", groupHandler.List)
		api.POST("/exams/:id/rooms", mappingHandler.MapExam)
		api.POST("/exams/:id/invigilators/auto", invigilatorHandler.AutoExam)
		api.DELETE("/exams/:id/invigilators", invigilatorHandler.RemoveAll)

		api.POST("/sessions/:id/rooms", mappingHandler.MapSession)
		api.DELETE("/sessions/:id/rooms", mappingHandler.ResetSession)
		api.POST("/sessions/:id/invigilators/auto", invigilatorHandler.AutoSession)

		api.PATCH("/mappings/:id/room", mappingHandler.Move)
		api.POST("/mappings/:id/seats", seatHandler.Assign)
		api.GET("/mappings/:id/seats", seatHandler.List)
		api.DELETE("/mappings/:id/seats", seatHandler.Reset)
		api.POST("/mappings/:id/invigilators", invigilatorHandler.Assign)

		api.GET("/rooms/available", roomHandler.Available)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
