package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medsecurex/gateway/internal/models"
	"github.com/medsecurex/gateway/internal/services"
)

// DashboardHandler serves the read-side aggregation endpoints the dashboard
// consumes.
type DashboardHandler struct {
	stats *services.Stats
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(stats *services.Stats) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// BlockedRequests returns blocked counts grouped by 5-minute intervals.
func (h *DashboardHandler) BlockedRequests(c *gin.Context) {
	series, err := h.stats.BlockedSeries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if series == nil {
		series = []services.BlockedPoint{}
	}
	c.JSON(http.StatusOK, series)
}

// APIUsage returns success/error counts per 5-minute bucket for the last hour.
func (h *DashboardHandler) APIUsage(c *gin.Context) {
	usage, err := h.stats.APIUsage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if usage == nil {
		usage = []services.UsagePoint{}
	}
	c.JSON(http.StatusOK, usage)
}

// TTPs returns the technique roll-up, sorted by count descending.
func (h *DashboardHandler) TTPs(c *gin.Context) {
	limit := parseLimit(c, 100)
	rollup, err := h.stats.TTPRollup(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rollup == nil {
		rollup = []services.TTPSummary{}
	}
	c.JSON(http.StatusOK, rollup)
}

// GatewayAlerts returns the latest external sensor alerts.
func (h *DashboardHandler) GatewayAlerts(c *gin.Context) {
	limit := parseLimit(c, 100)
	alerts, err := h.stats.RecentAlerts(limit)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"alerts": []models.GatewayAlert{}})
		return
	}
	if alerts == nil {
		alerts = []models.GatewayAlert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
