package models

import "time"

// PushToken records a device push token registered by a user at check-in.
// One user may hold zero or many tokens.
type PushToken struct {
	BaseModel

	Token         string    `gorm:"not null;index" json:"token"`
	LastCheckInAt time.Time `gorm:"not null" json:"last_check_in_at"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `json:"-"`
}
