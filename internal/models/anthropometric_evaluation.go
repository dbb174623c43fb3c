package models

import "time"

// AnthropometricEvaluation is one dated set of body measurements for a
// patient. Measures are centimeters and kilograms.
type AnthropometricEvaluation struct {
	BaseModel

	ExamDate time.Time `gorm:"not null;index" json:"exam_date"`

	Weight                 float64 `json:"weight"`
	DryWeight              float64 `json:"dry_weight"`
	BMI                    float64 `json:"bmi"`
	Height                 float64 `json:"height"`
	WaistCircumference     float64 `json:"waist_circumference"`
	AbdominalCircumference float64 `json:"abdominal_circumference"`
	HipCircumference       float64 `json:"hip_circumference"`
	ArmCircumference       float64 `json:"arm_circumference"`
	NeckCircumference      float64 `json:"neck_circumference"`
	RightWrist             float64 `json:"right_wrist"`

	PatientID string   `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient   *Patient `json:"-"`
}
