package handlers

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medsecurex/gateway/internal/models"
	"github.com/medsecurex/gateway/internal/services"
)

// suricataPrefix marks intake rules that should additionally be stored as
// external gateway alerts.
const suricataPrefix = "SURICATA"

// IncidentHandler serves the incident intake and admin endpoints. All of
// them require the admin key passed as a query parameter.
type IncidentHandler struct {
	recorder *services.Recorder
	stats    *services.Stats
	adminKey string
}

// NewIncidentHandler creates a new IncidentHandler.
func NewIncidentHandler(recorder *services.Recorder, stats *services.Stats, adminKey string) *IncidentHandler {
	return &IncidentHandler{recorder: recorder, stats: stats, adminKey: adminKey}
}

// authorized validates the caller's admin key. An empty configured key
// disables the whole admin surface.
func (h *IncidentHandler) authorized(c *gin.Context) bool {
	key := c.Query("key")
	if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Unauthorized access."})
		return false
	}
	return true
}

type intakeRequest struct {
	IP      string `json:"ip"`
	Payload string `json:"payload"`
	Rule    string `json:"rule"`
}

// Create receives incidents from external feeders (e.g. an IDS watcher).
func (h *IncidentHandler) Create(c *gin.Context) {
	if !h.authorized(c) {
		return
	}

	var req intakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	if req.IP == "" {
		req.IP = "unknown"
	}
	if req.Rule == "" {
		req.Rule = "Unknown"
	}

	h.recorder.RecordIncident(req.IP, req.Payload, req.Rule)

	if strings.HasPrefix(req.Rule, suricataPrefix) {
		h.recorder.RecordAlert(time.Now().UTC(), req.IP, req.Rule, "Suricata Alert", 2)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Incident logged successfully"})
}

// List returns the raw incident listing for the admin view.
func (h *IncidentHandler) List(c *gin.Context) {
	if !h.authorized(c) {
		return
	}

	incidents, err := h.stats.RecentIncidents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if incidents == nil {
		incidents = []models.Incident{}
	}
	c.JSON(http.StatusOK, incidents)
}

// MarkHandled flips an incident's status to handled. Idempotent.
func (h *IncidentHandler) MarkHandled(c *gin.Context) {
	if !h.authorized(c) {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid incident id"})
		return
	}

	if !h.recorder.MarkHandled(uint(id)) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "incident not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
