package models

import (
	"time"

	"gorm.io/datatypes"
)

// Priority controls how the push gateway treats a message.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

// Notification is a scheduled (or immediate, when ScheduleDate is nil) push
// message addressed to a set of users. IsSent flips false→true exactly once,
// after a delivery attempt has been issued, and never reverts.
type Notification struct {
	BaseModel

	ScheduleDate *time.Time `gorm:"index" json:"schedule_date,omitempty"`
	Message      string     `gorm:"not null" json:"message"`
	Title        string     `json:"title,omitempty"`
	Subtitle     string     `json:"subtitle,omitempty"`
	Priority     Priority   `gorm:"type:varchar(16);default:'NORMAL'" json:"priority"`

	UserIDs datatypes.JSONSlice[string] `gorm:"not null" json:"user_ids"`
	Data    datatypes.JSON              `json:"data,omitempty"`

	IsSent bool       `gorm:"default:false;index" json:"is_sent"`
	SentAt *time.Time `json:"sent_at,omitempty"`
}
