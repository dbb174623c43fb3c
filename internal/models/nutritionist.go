package models

// Nutritionist is the professional profile of a Person, keyed by the CRN
// (regional nutrition-council registration).
type Nutritionist struct {
	BaseModel

	CRN string `gorm:"uniqueIndex;not null" json:"crn"`

	PersonID string  `gorm:"type:uuid;not null;index" json:"person_id"`
	Person   *Person `json:"person,omitempty"`

	Appointments []Appointment `gorm:"foreignKey:NutritionistID" json:"-"`
}
