package models

// PasswordResetCode is a short-lived numeric code mailed to a user who forgot
// their password. Validity (30 minutes) is enforced in queries; stale rows are
// purged by the weekly retention job.
type PasswordResetCode struct {
	BaseModel

	Code string `gorm:"type:varchar(8);not null;index" json:"-"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `json:"-"`
}
