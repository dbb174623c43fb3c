package models

import "gorm.io/datatypes"

// FoodConsumption is a food-recall record for a patient, linked to one day of
// the week. FoodRecords keeps the per-meal entries as a JSON document.
type FoodConsumption struct {
	BaseModel

	LinkedDay   string         `gorm:"type:varchar(16);not null" json:"linked_day"`
	FoodRecords datatypes.JSON `gorm:"not null" json:"food_records"`

	PatientID string   `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient   *Patient `json:"-"`

	NutritionistID string        `gorm:"type:uuid;not null;index" json:"nutritionist_id"`
	Nutritionist   *Nutritionist `json:"-"`
}
