package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
)

const appointmentReminderTitle = "Lembrete"

// AppointmentQueryType selects which slice of a nutritionist's agenda to list.
type AppointmentQueryType string

const (
	AppointmentScheduled AppointmentQueryType = "SCHEDULED"
	AppointmentCanceled  AppointmentQueryType = "CANCELED"
	AppointmentFinished  AppointmentQueryType = "FINISHED"
)

// CreateAppointmentInput holds everything needed to book a consultation.
// ActorUserID identifies the authenticated user performing the booking; it is
// passed explicitly rather than read from ambient request state.
type CreateAppointmentInput struct {
	ActorUserID    string
	NutritionistID string
	PatientID      string
	ScheduledAt    time.Time
	LeadMinutes    []int
}

// ListAppointmentsInput filters a nutritionist's agenda.
type ListAppointmentsInput struct {
	NutritionistID string
	Type           AppointmentQueryType
	Limit          int
	Offset         int
}

// AppointmentDTO is the API-friendly appointment payload.
type AppointmentDTO struct {
	ID             string    `json:"id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	IsCanceled     bool      `json:"is_canceled"`
	PatientID      string    `json:"patient_id"`
	PatientName    string    `json:"patient_name,omitempty"`
	NutritionistID string    `json:"nutritionist_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// AppointmentService books consultations and fans out their reminder
// notifications.
type AppointmentService struct {
	db            *gorm.DB
	notifications *NotificationService
	now           func() time.Time
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(db *gorm.DB, notificationService *NotificationService) (*AppointmentService, error) {
	if db == nil {
		return nil, errors.New("appointment service: db is required")
	}
	if notificationService == nil {
		return nil, errors.New("appointment service: notification service is required")
	}
	return &AppointmentService{
		db:            db,
		notifications: notificationService,
		now:           time.Now,
	}, nil
}

// Create books an appointment and schedules one reminder at the appointment
// time plus one per lead interval before it. The appointment row and every
// reminder are written in a single transaction; any failure rolls back the
// whole booking.
func (s *AppointmentService) Create(ctx context.Context, input CreateAppointmentInput) (*AppointmentDTO, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(input.ActorUserID) == "" {
		return nil, errors.New("appointment service: actor user id is required")
	}
	if input.ScheduledAt.IsZero() {
		return nil, apperrors.NewBadRequest("Appointment date is required")
	}

	var nutritionist models.Nutritionist
	if err := s.db.WithContext(ctx).First(&nutritionist, "id = ?", input.NutritionistID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("appointment service: load nutritionist: %w", err)
	}

	var actor models.User
	if err := s.db.WithContext(ctx).First(&actor, "id = ?", input.ActorUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("appointment service: load actor: %w", err)
	}
	if actor.PersonID != nutritionist.PersonID {
		return nil, apperrors.ErrForbidden
	}

	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", input.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("appointment service: load patient: %w", err)
	}

	targets := []string{actor.ID}
	var patientUser models.User
	err := s.db.WithContext(ctx).First(&patientUser, "person_id = ?", patient.PersonID).Error
	switch {
	case err == nil:
		targets = append(targets, patientUser.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Patient has not activated an account yet; only the actor is notified.
	default:
		return nil, fmt.Errorf("appointment service: load patient user: %w", err)
	}

	schedule := []time.Time{input.ScheduledAt}
	for _, minutes := range input.LeadMinutes {
		schedule = append(schedule, input.ScheduledAt.Add(-time.Duration(minutes)*time.Minute))
	}

	specs := make([]NotificationSpec, 0, len(schedule))
	for i, at := range schedule {
		scheduleAt := at
		priority := models.PriorityNormal
		if i == 0 {
			priority = models.PriorityHigh
		}
		specs = append(specs, NotificationSpec{
			ScheduleDate: &scheduleAt,
			Title:        appointmentReminderTitle,
			Body:         reminderMessage(scheduleAt, input.ScheduledAt),
			Priority:     priority,
			UserIDs:      targets,
		})
	}

	appointment := models.Appointment{
		ScheduledAt:    input.ScheduledAt,
		PatientID:      patient.ID,
		NutritionistID: nutritionist.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&appointment).Error; err != nil {
			return fmt.Errorf("appointment service: create appointment: %w", err)
		}
		if _, err := s.notifications.Create(ctx, specs, tx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapAppointment(appointment, nil)
	return &dto, nil
}

// ListForNutritionist pages through a nutritionist's agenda by status.
func (s *AppointmentService) ListForNutritionist(ctx context.Context, input ListAppointmentsInput) ([]AppointmentDTO, int64, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(input.NutritionistID) == "" {
		return nil, 0, errors.New("appointment service: nutritionist id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	now := s.now()
	query := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("nutritionist_id = ?", input.NutritionistID)

	switch input.Type {
	case AppointmentCanceled:
		query = query.Where("is_canceled = ?", true).Order("scheduled_at DESC")
	case AppointmentFinished:
		query = query.Where("scheduled_at < ?", now).Order("scheduled_at DESC")
	case AppointmentScheduled, "":
		query = query.Where("scheduled_at >= ? AND is_canceled = ?", now, false).Order("scheduled_at ASC")
	default:
		return nil, 0, apperrors.NewBadRequest("Unknown appointment query type")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("appointment service: count appointments: %w", err)
	}

	var rows []models.Appointment
	if err := query.
		Preload("Patient").
		Preload("Patient.Person").
		Limit(limit).
		Offset(maxInt(0, input.Offset)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("appointment service: list appointments: %w", err)
	}

	items := make([]AppointmentDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapAppointment(row, row.Patient))
	}
	return items, total, nil
}

// Cancel flags an appointment as canceled. Only the owning nutritionist's
// user may cancel; rows are never deleted.
func (s *AppointmentService) Cancel(ctx context.Context, actorUserID, appointmentID string) error {
	ctx = ensureContext(ctx)

	var appointment models.Appointment
	if err := s.db.WithContext(ctx).
		Preload("Nutritionist").
		First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("appointment service: load appointment: %w", err)
	}

	var actor models.User
	if err := s.db.WithContext(ctx).First(&actor, "id = ?", actorUserID).Error; err != nil {
		return apperrors.ErrUnauthorized
	}
	if appointment.Nutritionist == nil || actor.PersonID != appointment.Nutritionist.PersonID {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).
		Model(&appointment).
		Update("is_canceled", true).Error; err != nil {
		return fmt.Errorf("appointment service: cancel appointment: %w", err)
	}
	return nil
}

// reminderMessage phrases the reminder relative to how far the schedule entry
// sits from the appointment itself.
func reminderMessage(scheduleAt, appointmentAt time.Time) string {
	distance := appointmentAt.Sub(scheduleAt)
	if distance < time.Minute {
		return "Passando para lembrar da sua consulta agora"
	}
	return "Passando para lembrar da sua consulta em " + humaniseDistance(distance)
}

// humaniseDistance renders a duration in the largest sensible unit. When the
// leftover hours of a multi-hour distance pass 22 the day count rounds up,
// so a reminder set a day ahead never reads as "23 horas".
func humaniseDistance(d time.Duration) string {
	if d < time.Minute {
		return pluralise(int(math.Round(d.Seconds())), "segundo", "segundos")
	}

	minutes := int(math.Round(d.Minutes()))
	if minutes < 60 {
		return pluralise(minutes, "minuto", "minutos")
	}

	days := int(d.Hours()) / 24
	remainder := int(d.Hours()) % 24
	if remainder > 22 {
		days++
	}
	if days > 0 {
		return pluralise(days, "dia", "dias")
	}

	return pluralise(int(math.Round(d.Hours())), "hora", "horas")
}

func pluralise(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func mapAppointment(row models.Appointment, patient *models.Patient) AppointmentDTO {
	dto := AppointmentDTO{
		ID:             row.ID,
		ScheduledAt:    row.ScheduledAt,
		IsCanceled:     row.IsCanceled,
		PatientID:      row.PatientID,
		NutritionistID: row.NutritionistID,
		CreatedAt:      row.CreatedAt,
	}
	if patient != nil && patient.Person != nil {
		dto.PatientName = patient.Person.Name
	}
	return dto
}
