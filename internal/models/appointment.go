package models

import "time"

// Appointment is a consultation slot between a nutritionist and a patient.
// Rows are immutable except for the cancellation flag and are never deleted.
type Appointment struct {
	BaseModel

	ScheduledAt time.Time `gorm:"not null;index" json:"scheduled_at"`
	IsCanceled  bool      `gorm:"default:false" json:"is_canceled"`

	PatientID string   `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient   *Patient `json:"patient,omitempty"`

	NutritionistID string        `gorm:"type:uuid;not null;index" json:"nutritionist_id"`
	Nutritionist   *Nutritionist `json:"nutritionist,omitempty"`
}
