package models

// Guidance is a piece of nutritional guidance written by a nutritionist for a
// patient. Creating one raises an immediate notification for the patient.
type Guidance struct {
	BaseModel

	NutritionalGuidance string `gorm:"type:text;not null" json:"nutritional_guidance"`

	PatientID string   `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient   *Patient `json:"-"`

	NutritionistID string        `gorm:"type:uuid;not null;index" json:"nutritionist_id"`
	Nutritionist   *Nutritionist `json:"-"`
}
