package models

import (
	"time"
)

// TTP stores a MITRE technique mapping derived automatically from an
// incident's triggering rule name.
type TTP struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Timestamp     time.Time `json:"timestamp"`
	IncidentID    uint      `json:"incident_id" gorm:"index"`
	TechniqueID   string    `json:"technique_id" gorm:"size:100"`
	TechniqueName string    `json:"technique_name" gorm:"size:255"`
	Description   string    `json:"description" gorm:"type:text"`
}
