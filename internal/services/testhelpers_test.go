package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/database/testutil"
	"github.com/nutriconsultas/backend/internal/models"
	"github.com/nutriconsultas/backend/internal/push"
)

// Structurally valid CPF numbers used across the service tests.
const (
	testCPFNutritionist = "52998224725"
	testCPFPatient      = "11144477735"
	testCPFSpare        = "16899535009"
)

type fakeSender struct {
	messages []push.Message
	err      error
}

func (f *fakeSender) Send(_ context.Context, msg push.Message) ([]push.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.messages = append(f.messages, msg)
	tickets := make([]push.Ticket, len(msg.To))
	for i := range tickets {
		tickets[i] = push.Ticket{Status: "ok"}
	}
	return tickets, nil
}

type clinicFixture struct {
	Nutritionist models.Nutritionist
	ActorUser    models.User
	Patient      models.Patient
	PatientUser  models.User
}

// seedClinic creates a nutritionist with a linked user plus a patient with an
// activated account.
func seedClinic(t *testing.T, db *gorm.DB) clinicFixture {
	t.Helper()

	nutriPerson := models.Person{
		Name:         "Ana Souza",
		CPF:          testCPFNutritionist,
		BirthdayDate: time.Date(1988, 4, 12, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&nutriPerson).Error)

	actorEmail := "ana@example.com"
	actor := models.User{
		Role:      models.RoleNutritionist,
		Email:     &actorEmail,
		Password:  "$2a$10$not-a-real-hash",
		IsCreator: true,
		PersonID:  nutriPerson.ID,
	}
	require.NoError(t, db.Create(&actor).Error)

	nutritionist := models.Nutritionist{CRN: "CRN-1 12345", PersonID: nutriPerson.ID}
	require.NoError(t, db.Create(&nutritionist).Error)

	patientPerson := models.Person{
		Name:         "Bruno Lima",
		CPF:          testCPFPatient,
		BirthdayDate: time.Date(1995, 9, 3, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&patientPerson).Error)

	patientEmail := "bruno@example.com"
	patientUser := models.User{
		Role:     models.RolePatient,
		Email:    &patientEmail,
		Password: "$2a$10$not-a-real-hash",
		PersonID: patientPerson.ID,
	}
	require.NoError(t, db.Create(&patientUser).Error)

	patient := models.Patient{
		Sex:         "MALE",
		Gender:      "MALE",
		CivilStatus: "SINGLE",
		PersonID:    patientPerson.ID,
	}
	require.NoError(t, db.Create(&patient).Error)

	return clinicFixture{
		Nutritionist: nutritionist,
		ActorUser:    actor,
		Patient:      patient,
		PatientUser:  patientUser,
	}
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func registerPushToken(t *testing.T, db *gorm.DB, userID, token string) {
	t.Helper()
	row := models.PushToken{Token: token, UserID: userID, LastCheckInAt: time.Now().UTC()}
	require.NoError(t, db.Create(&row).Error)
}
