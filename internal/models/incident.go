package models

import (
	"time"
)

// Incident status values.
const (
	IncidentOpen    = "open"
	IncidentHandled = "handled"
)

// Incident stores one blocked request so it can be audited and surfaced in the
// dashboard. RuleTriggered is always non-empty for a persisted incident.
type Incident struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UUID          string    `json:"uuid" gorm:"uniqueIndex"`
	Timestamp     time.Time `json:"timestamp" gorm:"index"`
	IP            string    `json:"ip" gorm:"size:45"`
	Payload       string    `json:"payload" gorm:"type:text"`
	RuleTriggered string    `json:"rule_triggered" gorm:"size:255;index"`
	Status        string    `json:"status" gorm:"size:50;default:open"`
}
