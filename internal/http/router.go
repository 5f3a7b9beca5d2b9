package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/config"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/db"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/http/handlers"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/http/middleware"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/service"

	_ "github.com/Mesh-254/drop-and-roll-backend-sub000/docs"
)

func Router(cfg config.Config, store *db.Store, orch *service.Orchestrator, resolver *service.HubResolver, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:            store,
		Orchestrator:     orch,
		Resolver:         resolver,
		Validator:        validator.New(),
		Logger:           logger,
		MaxHubDistanceKm: cfg.MaxHubDistanceKm,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/bookings", h.BookingsList)
		api.GET("/routes", h.RoutesList)
		api.GET("/hubs", h.HubsList)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/optimize", h.Optimize)
		admin.POST("/hubs/assign", h.HubsAssign)
		admin.POST("/routes/manual", h.ManualRoute)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
