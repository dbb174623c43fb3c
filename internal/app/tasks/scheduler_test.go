package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/auth"
	testutil "github.com/nutriconsultas/backend/internal/database/testutil"
	"github.com/nutriconsultas/backend/internal/models"
	"github.com/nutriconsultas/backend/internal/notifications"
	"github.com/nutriconsultas/backend/internal/push"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/pkg/mail"
)

type fakeSender struct {
	messages []push.Message
}

func (f *fakeSender) Send(_ context.Context, msg push.Message) ([]push.Ticket, error) {
	f.messages = append(f.messages, msg)
	return []push.Ticket{{Status: "ok"}}, nil
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, mail.Message) error { return nil }

type schedulerFixture struct {
	db        *gorm.DB
	sender    *fakeSender
	scheduler *Scheduler
	user      models.User
	person    models.Person
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	person := models.Person{Name: "Bruno Lima", CPF: "11144477735", BirthdayDate: time.Date(1991, 7, 2, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, db.Create(&person).Error)

	user := models.User{Role: models.RolePatient, PersonID: person.ID}
	require.NoError(t, db.Create(&user).Error)

	token := models.PushToken{Token: "ExponentPushToken[patient]", UserID: user.ID, LastCheckInAt: time.Now().UTC()}
	require.NoError(t, db.Create(&token).Error)

	sender := &fakeSender{}
	notifSvc, err := services.NewNotificationService(db, notifications.NewHub(), sender)
	require.NoError(t, err)

	users, err := services.NewUserService(db)
	require.NoError(t, err)

	patients, err := services.NewPatientService(db, users)
	require.NoError(t, err)

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "tasks-secret", Issuer: "nutriconsultas"})
	require.NoError(t, err)

	authSvc, err := services.NewAuthService(db, users, jwtSvc, noopMailer{})
	require.NoError(t, err)

	scheduler := NewScheduler(notifSvc, patients, authSvc,
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	return &schedulerFixture{db: db, sender: sender, scheduler: scheduler, user: user, person: person}
}

func TestRunOnceDispatchesDueNotifications(t *testing.T) {
	f := newSchedulerFixture(t)

	overdue := time.Now().UTC().Add(-5 * time.Minute)
	row := models.Notification{
		ScheduleDate: &overdue,
		Message:      "Passando para lembrar da sua consulta agora",
		Title:        "Lembrete",
		Priority:     models.PriorityHigh,
		UserIDs:      datatypes.NewJSONSlice([]string{f.user.ID}),
	}
	require.NoError(t, f.db.Create(&row).Error)

	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	require.NotEmpty(t, f.sender.messages)
	require.Contains(t, f.sender.messages[0].To, "ExponentPushToken[patient]")

	var stored models.Notification
	require.NoError(t, f.db.First(&stored, "id = ?", row.ID).Error)
	require.True(t, stored.IsSent)
}

func TestRunOnceRemindsPatientsWithoutRecentUploads(t *testing.T) {
	f := newSchedulerFixture(t)

	patient := models.Patient{PersonID: f.person.ID}
	require.NoError(t, f.db.Create(&patient).Error)

	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	var reminder models.Notification
	require.NoError(t, f.db.First(&reminder, "title = ?", dailyReminderTitle).Error)
	require.True(t, reminder.IsSent)
	require.Equal(t, []string{f.user.ID}, []string(reminder.UserIDs))
}

func TestRunOnceSkipsPatientsWithRecentUploads(t *testing.T) {
	f := newSchedulerFixture(t)

	patient := models.Patient{PersonID: f.person.ID}
	require.NoError(t, f.db.Create(&patient).Error)

	upload := models.BodyEvolution{
		UploadDate: time.Now().UTC().Add(-24 * time.Hour),
		StorageKey: "body-evolution/recent.jpg",
		PatientID:  patient.ID,
	}
	require.NoError(t, f.db.Create(&upload).Error)

	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	var count int64
	require.NoError(t, f.db.Model(&models.Notification{}).
		Where("title = ?", dailyReminderTitle).
		Count(&count).Error)
	require.Zero(t, count)
}

func TestRunOnceCleansExpiredResetCodes(t *testing.T) {
	f := newSchedulerFixture(t)

	fresh := models.PasswordResetCode{Code: "1111111", UserID: f.user.ID}
	require.NoError(t, f.db.Create(&fresh).Error)

	stale := models.PasswordResetCode{Code: "2222222", UserID: f.user.ID}
	require.NoError(t, f.db.Create(&stale).Error)
	require.NoError(t, f.db.Model(&stale).
		Update("created_at", time.Now().UTC().Add(-48*time.Hour)).Error)

	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	var remaining []models.PasswordResetCode
	require.NoError(t, f.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "1111111", remaining[0].Code)
}

func TestStartRegistersJobsAndStops(t *testing.T) {
	f := newSchedulerFixture(t)

	require.NoError(t, f.scheduler.Start())

	ctx := f.scheduler.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
