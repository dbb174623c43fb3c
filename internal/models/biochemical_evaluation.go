package models

import "time"

// BiochemicalEvaluation is one dated lab panel for a patient. Values are kept
// as free-form strings so units and reference notes survive as entered.
type BiochemicalEvaluation struct {
	BaseModel

	ExamDate time.Time `gorm:"not null;index" json:"exam_date"`

	Glucose             string `json:"glucose"`
	GlycatedHemoglobin  string `json:"glycated_hemoglobin"`
	TotalCholesterol    string `json:"total_cholesterol"`
	HDL                 string `json:"hdl"`
	LDL                 string `json:"ldl"`
	Triglycerides       string `json:"triglycerides"`
	Urea                string `json:"urea"`
	Creatinine          string `json:"creatinine"`
	UricAcid            string `json:"uric_acid"`
	TGO                 string `json:"tgo"`
	TGP                 string `json:"tgp"`
	TSH                 string `json:"tsh"`
	T4                  string `json:"t4"`
	VitaminD            string `json:"vitamin_d"`
	VitaminB12          string `json:"vitamin_b12"`
	Ferritin            string `json:"ferritin"`
	Hemoglobin          string `json:"hemoglobin"`
	Hematocrit          string `json:"hematocrit"`
	CReactiveProtein    string `json:"c_reactive_protein"`
	FastingInsulin      string `json:"fasting_insulin"`
	AdditionalExamNotes string `gorm:"type:text" json:"additional_exam_notes"`

	PatientID string   `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient   *Patient `json:"-"`
}
