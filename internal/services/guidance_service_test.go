package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nutriconsultas/backend/internal/models"
	"github.com/nutriconsultas/backend/internal/notifications"
)

func newGuidanceFixture(t *testing.T) (*GuidanceService, *fakeSender, clinicFixture) {
	t.Helper()

	db := openServiceTestDB(t)
	fixture := seedClinic(t, db)

	sender := &fakeSender{}
	notifSvc, err := NewNotificationService(db, notifications.NewHub(), sender)
	require.NoError(t, err)

	svc, err := NewGuidanceService(db, notifSvc)
	require.NoError(t, err)

	return svc, sender, fixture
}

func TestCreateGuidanceNotifiesPatient(t *testing.T) {
	svc, sender, fixture := newGuidanceFixture(t)
	ctx := context.Background()

	registerPushToken(t, svc.db, fixture.PatientUser.ID, "ExponentPushToken[patient]")

	guidance, err := svc.Create(ctx, CreateGuidanceInput{
		NutritionistID:      fixture.Nutritionist.ID,
		PatientID:           fixture.Patient.ID,
		NutritionalGuidance: "Beber 2L de água por dia",
	})
	require.NoError(t, err)
	require.NotEmpty(t, guidance.ID)

	require.Len(t, sender.messages, 1)
	require.Equal(t, []string{"ExponentPushToken[patient]"}, sender.messages[0].To)
	require.Equal(t, "Você tem uma nova orientação cadastrada", sender.messages[0].Title)

	var notification models.Notification
	require.NoError(t, svc.db.First(&notification).Error)
	require.True(t, notification.IsSent)
	require.Equal(t, []string{fixture.PatientUser.ID}, []string(notification.UserIDs))
}

func TestCreateGuidanceRequiresText(t *testing.T) {
	svc, _, fixture := newGuidanceFixture(t)

	_, err := svc.Create(context.Background(), CreateGuidanceInput{
		NutritionistID: fixture.Nutritionist.ID,
		PatientID:      fixture.Patient.ID,
	})
	require.Error(t, err)
}

func TestCreateGuidanceSurvivesPushFailure(t *testing.T) {
	svc, sender, fixture := newGuidanceFixture(t)
	sender.err = context.DeadlineExceeded

	guidance, err := svc.Create(context.Background(), CreateGuidanceInput{
		NutritionistID:      fixture.Nutritionist.ID,
		PatientID:           fixture.Patient.ID,
		NutritionalGuidance: "Evitar ultraprocessados",
	})
	require.NoError(t, err)
	require.NotEmpty(t, guidance.ID)
}

func TestListGuidancesByPatient(t *testing.T) {
	svc, _, fixture := newGuidanceFixture(t)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, CreateGuidanceInput{
			NutritionistID:      fixture.Nutritionist.ID,
			PatientID:           fixture.Patient.ID,
			NutritionalGuidance: text,
		})
		require.NoError(t, err)
	}

	rows, total, err := svc.ListByPatient(ctx, fixture.Patient.ID, 2, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
}
