package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medsecurex/gateway/internal/logger"
	"github.com/medsecurex/gateway/internal/mitre"
	"github.com/medsecurex/gateway/internal/models"
	"github.com/medsecurex/gateway/internal/util"
)

// Recorder owns all writes to the verdict store: incidents, derived TTP
// mappings, request outcomes and external alerts. Every write is
// fire-and-forget with logging: the gateway's availability takes priority
// over audit completeness, so persistence failures never propagate to the
// request path and never abort sibling writes.
type Recorder struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewRecorder returns a Recorder using the provided DB.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// SetNotifier attaches an optional outbound notifier fired on incidents.
func (r *Recorder) SetNotifier(n *Notifier) {
	r.notifier = n
}

// RecordIncident inserts an incident row, derives its TTP mapping from the
// rule name, and records an error outcome for the request. Returns the
// incident id, or 0 when the incident insert itself failed.
func (r *Recorder) RecordIncident(ip, payload, rule string) uint {
	incident := models.Incident{
		UUID:          uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		IP:            ip,
		Payload:       payload,
		RuleTriggered: rule,
		Status:        models.IncidentOpen,
	}

	if err := r.db.Create(&incident).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"rule":  rule,
			"ip":    ip,
			"error": err.Error(),
		}).Error("failed to log incident")
	} else {
		logger.WithFields(map[string]interface{}{
			"incident_id": incident.ID,
			"rule":        rule,
			"ip":          ip,
		}).Warn("incident logged")
		r.recordTTP(incident.ID, rule)
		if r.notifier != nil {
			go r.notifier.NotifyIncident(incident)
		}
	}

	r.logRequest(models.RequestError, ip)
	return incident.ID
}

// RecordSuccess records a success outcome for an allowed request.
func (r *Recorder) RecordSuccess(ip string) {
	r.logRequest(models.RequestSuccess, ip)
}

// RecordFailure records an error outcome without creating an incident. Used
// for the fail-closed path when the analysis service is unreachable, which is
// a service outage rather than an attack.
func (r *Recorder) RecordFailure(ip string) {
	r.logRequest(models.RequestError, ip)
}

// RecordAlert inserts an alert fed in by an external sensor.
func (r *Recorder) RecordAlert(ts time.Time, source, signature, category string, severity int) {
	alert := models.GatewayAlert{
		Timestamp: ts,
		Source:    source,
		Signature: signature,
		Category:  category,
		Severity:  severity,
	}
	if err := r.db.Create(&alert).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"signature": util.SanitizeForLog(signature),
			"error":     err.Error(),
		}).Error("failed to log gateway alert")
		return
	}
	logger.WithFields(map[string]interface{}{
		"signature": util.SanitizeForLog(signature),
		"category":  category,
	}).Info("gateway alert logged")
}

// MarkHandled updates an incident's status to handled and reports whether
// the update succeeded. Marking an already handled incident succeeds too.
func (r *Recorder) MarkHandled(id uint) bool {
	res := r.db.Model(&models.Incident{}).Where("id = ?", id).
		Update("status", models.IncidentHandled)
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"incident_id": id,
			"error":       res.Error.Error(),
		}).Error("failed to mark incident handled")
		return false
	}
	return res.RowsAffected > 0
}

func (r *Recorder) recordTTP(incidentID uint, rule string) {
	technique, ok := mitre.MapRule(rule)
	if !ok {
		return
	}
	ttp := models.TTP{
		Timestamp:     time.Now().UTC(),
		IncidentID:    incidentID,
		TechniqueID:   technique.ID,
		TechniqueName: technique.Name,
		Description:   technique.Description,
	}
	if err := r.db.Create(&ttp).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"incident_id": incidentID,
			"technique":   technique.ID,
			"error":       err.Error(),
		}).Error("failed to log TTP")
		return
	}
	logger.WithFields(map[string]interface{}{
		"incident_id": incidentID,
		"technique":   technique.ID,
	}).Info("TTP logged")
}

func (r *Recorder) logRequest(status, ip string) {
	row := models.RequestLog{
		Timestamp: time.Now().UTC(),
		Status:    status,
		ClientIP:  ip,
	}
	if err := r.db.Create(&row).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"status": status,
			"ip":     ip,
			"error":  err.Error(),
		}).Error("failed to log request outcome")
	}
}
