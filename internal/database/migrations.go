package database

import (
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Person{},
		&models.User{},
		&models.Nutritionist{},
		&models.Patient{},
		&models.Appointment{},
		&models.Notification{},
		&models.PushToken{},
		&models.PasswordResetCode{},
		&models.Guidance{},
		&models.BodyEvolution{},
		&models.ClinicalEvaluation{},
		&models.AnthropometricEvaluation{},
		&models.BiochemicalEvaluation{},
		&models.FoodConsumption{},
	)
}
