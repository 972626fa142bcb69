package models

import (
	"time"
)

// GatewayAlert stores an alert fed in by an external sensor (e.g. a network
// IDS) through the incident intake endpoint.
type GatewayAlert struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
	Source    string    `json:"source" gorm:"size:45"`
	Signature string    `json:"signature" gorm:"type:text"`
	Category  string    `json:"category" gorm:"size:255"`
	Severity  int       `json:"severity"`
}
