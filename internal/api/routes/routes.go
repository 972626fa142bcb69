package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/medsecurex/gateway/internal/api/handlers"
	"github.com/medsecurex/gateway/internal/config"
	"github.com/medsecurex/gateway/internal/metrics"
	"github.com/medsecurex/gateway/internal/models"
	"github.com/medsecurex/gateway/internal/services"
)

// Register wires up API routes and performs automatic migrations. The
// recorder is shared with the inspection pipeline so incident writes go
// through a single owner.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, recorder *services.Recorder) error {
	if err := db.AutoMigrate(
		&models.Incident{},
		&models.RequestLog{},
		&models.TTP{},
		&models.GatewayAlert{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stats := services.NewStats(db)

	dashboardHandler := handlers.NewDashboardHandler(stats)
	incidentHandler := handlers.NewIncidentHandler(recorder, stats, cfg.AdminKey)

	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api")
	{
		api.GET("/blocked-requests", dashboardHandler.BlockedRequests)
		api.GET("/api-usage", dashboardHandler.APIUsage)
		api.GET("/ttps", dashboardHandler.TTPs)
		api.GET("/api-gateway", dashboardHandler.GatewayAlerts)
		api.POST("/incidents", incidentHandler.Create)
	}

	admin := router.Group("/admin")
	{
		admin.GET("/incidents", incidentHandler.List)
		admin.POST("/incidents/:id/handled", incidentHandler.MarkHandled)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return nil
}
