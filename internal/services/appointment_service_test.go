package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nutriconsultas/backend/internal/models"
	"github.com/nutriconsultas/backend/internal/notifications"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
)

func newAppointmentFixture(t *testing.T) (*AppointmentService, *NotificationService, clinicFixture) {
	t.Helper()

	db := openServiceTestDB(t)
	fixture := seedClinic(t, db)

	notifSvc, err := NewNotificationService(db, notifications.NewHub(), &fakeSender{})
	require.NoError(t, err)

	svc, err := NewAppointmentService(db, notifSvc)
	require.NoError(t, err)

	return svc, notifSvc, fixture
}

func TestCreateAppointmentFansOutReminders(t *testing.T) {
	svc, notifSvc, fixture := newAppointmentFixture(t)
	ctx := context.Background()

	scheduledAt := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	dto, err := svc.Create(ctx, CreateAppointmentInput{
		ActorUserID:    fixture.ActorUser.ID,
		NutritionistID: fixture.Nutritionist.ID,
		PatientID:      fixture.Patient.ID,
		ScheduledAt:    scheduledAt,
		LeadMinutes:    []int{60, 15},
	})
	require.NoError(t, err)
	require.Equal(t, scheduledAt, dto.ScheduledAt)

	var rows []models.Notification
	require.NoError(t, notifSvc.db.Order("schedule_date ASC").Find(&rows).Error)
	require.Len(t, rows, 3)

	// Ordered by schedule: -60m, -15m, then the appointment itself.
	require.True(t, rows[0].ScheduleDate.Equal(scheduledAt.Add(-60*time.Minute)))
	require.True(t, rows[1].ScheduleDate.Equal(scheduledAt.Add(-15*time.Minute)))
	require.True(t, rows[2].ScheduleDate.Equal(scheduledAt))

	require.Equal(t, models.PriorityNormal, rows[0].Priority)
	require.Equal(t, models.PriorityNormal, rows[1].Priority)
	require.Equal(t, models.PriorityHigh, rows[2].Priority)

	for _, row := range rows {
		require.ElementsMatch(t,
			[]string{fixture.ActorUser.ID, fixture.PatientUser.ID},
			[]string(row.UserIDs))
		require.Equal(t, "Lembrete", row.Title)
		require.False(t, row.IsSent)
	}

	require.Equal(t, "Passando para lembrar da sua consulta em 1 hora", rows[0].Message)
	require.Equal(t, "Passando para lembrar da sua consulta em 15 minutos", rows[1].Message)
	require.Equal(t, "Passando para lembrar da sua consulta agora", rows[2].Message)
}

func TestCreateAppointmentDayLeadUsesDayWording(t *testing.T) {
	svc, notifSvc, fixture := newAppointmentFixture(t)
	ctx := context.Background()

	scheduledAt := time.Date(2026, 9, 10, 0, 30, 0, 0, time.UTC)
	_, err := svc.Create(ctx, CreateAppointmentInput{
		ActorUserID:    fixture.ActorUser.ID,
		NutritionistID: fixture.Nutritionist.ID,
		PatientID:      fixture.Patient.ID,
		ScheduledAt:    scheduledAt,
		LeadMinutes:    []int{1440},
	})
	require.NoError(t, err)

	var row models.Notification
	require.NoError(t, notifSvc.db.
		Where("schedule_date = ?", scheduledAt.Add(-1440*time.Minute)).
		First(&row).Error)
	require.Equal(t, "Passando para lembrar da sua consulta em 1 dia", row.Message)
}

func TestCreateAppointmentRollsBackOnReminderFailure(t *testing.T) {
	svc, notifSvc, fixture := newAppointmentFixture(t)
	ctx := context.Background()

	// Force the reminder insert to fail mid-transaction.
	require.NoError(t, notifSvc.db.Migrator().DropTable(&models.Notification{}))

	_, err := svc.Create(ctx, CreateAppointmentInput{
		ActorUserID:    fixture.ActorUser.ID,
		NutritionistID: fixture.Nutritionist.ID,
		PatientID:      fixture.Patient.ID,
		ScheduledAt:    time.Now().Add(24 * time.Hour),
		LeadMinutes:    []int{30},
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, svc.db.Model(&models.Appointment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateAppointmentRejectsForeignActor(t *testing.T) {
	svc, _, fixture := newAppointmentFixture(t)

	_, err := svc.Create(context.Background(), CreateAppointmentInput{
		ActorUserID:    fixture.PatientUser.ID,
		NutritionistID: fixture.Nutritionist.ID,
		PatientID:      fixture.Patient.ID,
		ScheduledAt:    time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestCreateAppointmentWithoutPatientAccount(t *testing.T) {
	svc, notifSvc, fixture := newAppointmentFixture(t)
	ctx := context.Background()

	// A patient registered but never activated: remove the linked user.
	require.NoError(t, svc.db.Delete(&models.User{}, "id = ?", fixture.PatientUser.ID).Error)

	_, err := svc.Create(ctx, CreateAppointmentInput{
		ActorUserID:    fixture.ActorUser.ID,
		NutritionistID: fixture.Nutritionist.ID,
		PatientID:      fixture.Patient.ID,
		ScheduledAt:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	var row models.Notification
	require.NoError(t, notifSvc.db.First(&row).Error)
	require.Equal(t, []string{fixture.ActorUser.ID}, []string(row.UserIDs))
}

func TestListForNutritionistByType(t *testing.T) {
	svc, _, fixture := newAppointmentFixture(t)
	ctx := context.Background()

	past := models.Appointment{
		ScheduledAt:    time.Now().Add(-48 * time.Hour),
		PatientID:      fixture.Patient.ID,
		NutritionistID: fixture.Nutritionist.ID,
	}
	upcoming := models.Appointment{
		ScheduledAt:    time.Now().Add(48 * time.Hour),
		PatientID:      fixture.Patient.ID,
		NutritionistID: fixture.Nutritionist.ID,
	}
	canceled := models.Appointment{
		ScheduledAt:    time.Now().Add(72 * time.Hour),
		PatientID:      fixture.Patient.ID,
		NutritionistID: fixture.Nutritionist.ID,
		IsCanceled:     true,
	}
	require.NoError(t, svc.db.Create(&past).Error)
	require.NoError(t, svc.db.Create(&upcoming).Error)
	require.NoError(t, svc.db.Create(&canceled).Error)

	scheduled, total, err := svc.ListForNutritionist(ctx, ListAppointmentsInput{
		NutritionistID: fixture.Nutritionist.ID,
		Type:           AppointmentScheduled,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, upcoming.ID, scheduled[0].ID)
	require.Equal(t, "Bruno Lima", scheduled[0].PatientName)

	finished, total, err := svc.ListForNutritionist(ctx, ListAppointmentsInput{
		NutritionistID: fixture.Nutritionist.ID,
		Type:           AppointmentFinished,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, past.ID, finished[0].ID)

	canceledList, total, err := svc.ListForNutritionist(ctx, ListAppointmentsInput{
		NutritionistID: fixture.Nutritionist.ID,
		Type:           AppointmentCanceled,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.True(t, canceledList[0].IsCanceled)
}

func TestCancelAppointment(t *testing.T) {
	svc, _, fixture := newAppointmentFixture(t)
	ctx := context.Background()

	appointment := models.Appointment{
		ScheduledAt:    time.Now().Add(24 * time.Hour),
		PatientID:      fixture.Patient.ID,
		NutritionistID: fixture.Nutritionist.ID,
	}
	require.NoError(t, svc.db.Create(&appointment).Error)

	require.NoError(t, svc.Cancel(ctx, fixture.ActorUser.ID, appointment.ID))

	var row models.Appointment
	require.NoError(t, svc.db.First(&row, "id = ?", appointment.ID).Error)
	require.True(t, row.IsCanceled)

	err := svc.Cancel(ctx, fixture.PatientUser.ID, appointment.ID)
	require.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestHumaniseDistance(t *testing.T) {
	cases := []struct {
		name     string
		distance time.Duration
		want     string
	}{
		{"seconds", 30 * time.Second, "30 segundos"},
		{"single minute", time.Minute, "1 minuto"},
		{"minutes", 15 * time.Minute, "15 minutos"},
		{"single hour", time.Hour, "1 hora"},
		{"rounded hours", 90 * time.Minute, "2 horas"},
		{"near midnight rounds up", 23 * time.Hour, "1 dia"},
		{"exact day", 24 * time.Hour, "1 dia"},
		{"days", 72 * time.Hour, "3 dias"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, humaniseDistance(tc.distance))
		})
	}
}
