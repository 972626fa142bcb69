package models

import (
	"time"
)

// Request outcome status values.
const (
	RequestSuccess = "success"
	RequestError   = "error"
)

// RequestLog stores one record per inspected request, regardless of verdict.
// Rows are immutable after creation and feed the usage aggregation.
type RequestLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
	Status    string    `json:"status" gorm:"size:50"`
	ClientIP  string    `json:"client_ip" gorm:"size:45"`
}
