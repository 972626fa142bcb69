package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"

	"github.com/medsecurex/gateway/internal/logger"
	"github.com/medsecurex/gateway/internal/models"
	"github.com/medsecurex/gateway/internal/util"
)

// Notifier pushes blocked-request alerts to an external destination via a
// shoutrrr URL (discord, slack, smtp, ...). Delivery is best-effort: a failed
// send is logged and never affects the verdict path.
type Notifier struct {
	url string
}

// NewNotifier returns a Notifier, or nil when no destination is configured.
func NewNotifier(url string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{url: url}
}

// NotifyIncident sends a short summary of a blocked request.
func (n *Notifier) NotifyIncident(incident models.Incident) {
	msg := fmt.Sprintf("Blocked request from %s (rule: %s): %s",
		incident.IP, incident.RuleTriggered,
		util.Truncate(util.SanitizeForLog(incident.Payload), 120))
	if err := shoutrrr.Send(n.url, msg); err != nil {
		logger.WithFields(map[string]interface{}{
			"rule":  incident.RuleTriggered,
			"error": err.Error(),
		}).Error("failed to send incident notification")
	}
}
