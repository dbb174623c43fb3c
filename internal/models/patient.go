package models

// Patient carries the clinical profile of a Person under care.
type Patient struct {
	BaseModel

	Sex               string `gorm:"type:varchar(16);not null" json:"sex"`
	Gender            string `gorm:"type:varchar(32);not null" json:"gender"`
	CivilStatus       string `gorm:"type:varchar(32);not null" json:"civil_status"`
	Nationality       string `json:"nationality"`
	Naturality        string `json:"naturality"`
	Ethnicity         string `gorm:"type:varchar(32)" json:"ethnicity"`
	Schooling         string `gorm:"type:varchar(32)" json:"schooling"`
	Profession        string `json:"profession"`
	CompleteAddress   string `json:"complete_address"`
	HistoryWeightGain string `json:"history_weight_gain"`
	PhoneNumber       string `gorm:"type:varchar(32)" json:"phone_number"`

	PersonID string  `gorm:"type:uuid;not null;index" json:"person_id"`
	Person   *Person `json:"person,omitempty"`

	Appointments              []Appointment              `gorm:"foreignKey:PatientID" json:"-"`
	BodyEvolutions            []BodyEvolution            `gorm:"foreignKey:PatientID" json:"-"`
	Guidances                 []Guidance                 `gorm:"foreignKey:PatientID" json:"-"`
	AnthropometricEvaluations []AnthropometricEvaluation `gorm:"foreignKey:PatientID" json:"-"`
	BiochemicalEvaluations    []BiochemicalEvaluation    `gorm:"foreignKey:PatientID" json:"-"`
	ClinicalEvaluation        *ClinicalEvaluation        `gorm:"foreignKey:PatientID" json:"-"`
	FoodConsumptions          []FoodConsumption          `gorm:"foreignKey:PatientID" json:"-"`
}
