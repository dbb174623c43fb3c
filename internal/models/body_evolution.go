package models

import "time"

// BodyEvolution is a progress photo uploaded by a patient.
type BodyEvolution struct {
	BaseModel

	UploadDate time.Time `gorm:"not null;index" json:"upload_date"`
	StorageKey string    `gorm:"not null" json:"-"`
	ImageURL   string    `json:"image_url"`

	PatientID string   `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient   *Patient `json:"-"`
}
