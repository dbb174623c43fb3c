package models

// Role identifies the kind of account behind a login.
type Role string

const (
	RoleNutritionist Role = "NUTRITIONIST"
	RolePatient      Role = "PATIENT"
)

// User is a login bound to a Person. Email and password stay empty until the
// patient completes first-access setup.
type User struct {
	BaseModel

	Role      Role    `gorm:"type:varchar(32);default:'NUTRITIONIST'" json:"role"`
	Email     *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Password  string  `gorm:"type:varchar(255)" json:"-"`
	IsCreator bool    `gorm:"default:false" json:"is_creator"`

	PersonID string  `gorm:"type:uuid;not null;index" json:"person_id"`
	Person   *Person `json:"person,omitempty"`

	PushTokens []PushToken `gorm:"foreignKey:UserID" json:"-"`
}
