package models

import "time"

// Person holds the civil identity shared by users, patients, and nutritionists.
type Person struct {
	BaseModel

	Name         string    `gorm:"not null" json:"name"`
	CPF          string    `gorm:"uniqueIndex;not null" json:"cpf"`
	BirthdayDate time.Time `gorm:"not null" json:"birthday_date"`

	User         *User         `gorm:"foreignKey:PersonID" json:"user,omitempty"`
	Patient      *Patient      `gorm:"foreignKey:PersonID" json:"patient,omitempty"`
	Nutritionist *Nutritionist `gorm:"foreignKey:PersonID" json:"nutritionist,omitempty"`
}
