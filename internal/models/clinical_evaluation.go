package models

// ClinicalEvaluation is the anamnesis recorded for a patient. A patient keeps
// a single evaluation that is updated over time.
type ClinicalEvaluation struct {
	BaseModel

	MainGoal                string `gorm:"type:text" json:"main_goal"`
	HealthProblems          string `gorm:"type:text" json:"health_problems"`
	FamilyHealthProblems    string `gorm:"type:text" json:"family_health_problems"`
	Medications             string `gorm:"type:text" json:"medications"`
	Allergies               string `gorm:"type:text" json:"allergies"`
	FoodIntolerances        string `gorm:"type:text" json:"food_intolerances"`
	IntestinalFunction      string `json:"intestinal_function"`
	SleepQuality            string `json:"sleep_quality"`
	PhysicalActivity        string `gorm:"type:text" json:"physical_activity"`
	AlcoholConsumption      string `json:"alcohol_consumption"`
	Smoking                 string `json:"smoking"`
	WaterIntake             string `json:"water_intake"`
	EatingBehaviorNotes     string `gorm:"type:text" json:"eating_behavior_notes"`
	PreviousDiets           string `gorm:"type:text" json:"previous_diets"`
	SupplementsInUse        string `gorm:"type:text" json:"supplements_in_use"`
	GastrointestinalSymptom string `gorm:"type:text" json:"gastrointestinal_symptom"`

	PatientID string   `gorm:"type:uuid;not null;uniqueIndex" json:"patient_id"`
	Patient   *Patient `json:"-"`
}
