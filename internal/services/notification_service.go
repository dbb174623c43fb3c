package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
	"github.com/nutriconsultas/backend/internal/notifications"
	"github.com/nutriconsultas/backend/internal/push"
	"github.com/nutriconsultas/backend/pkg/logger"
	"github.com/nutriconsultas/backend/pkg/metrics"
)

// dispatchWindow is how far ahead of the tick a scheduled notification is
// considered due. Matches the one-minute dispatch cadence.
const dispatchWindow = 60 * time.Second

// PushSender abstracts the push gateway client.
type PushSender interface {
	Send(ctx context.Context, msg push.Message) ([]push.Ticket, error)
}

// NotificationSpec describes one notification to persist. A nil ScheduleDate
// means the notification is due immediately.
type NotificationSpec struct {
	ScheduleDate *time.Time
	Title        string
	Subtitle     string
	Body         string
	Priority     models.Priority
	UserIDs      []string
	Data         map[string]any
}

// NotificationDTO is the API-friendly notification payload.
type NotificationDTO struct {
	ID           string     `json:"id"`
	ScheduleDate *time.Time `json:"schedule_date,omitempty"`
	Title        string     `json:"title,omitempty"`
	Subtitle     string     `json:"subtitle,omitempty"`
	Message      string     `json:"message"`
	Priority     string     `json:"priority"`
	UserIDs      []string   `json:"user_ids"`
	IsSent       bool       `json:"is_sent"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NotificationService persists notifications and drives their delivery
// through the push gateway and the in-app websocket hub.
type NotificationService struct {
	db     *gorm.DB
	hub    *notifications.Hub
	sender PushSender
	log    *zap.Logger
	now    func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, hub *notifications.Hub, sender PushSender) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{
		db:     db,
		hub:    hub,
		sender: sender,
		log:    logger.WithModule("notifications"),
		now:    time.Now,
	}, nil
}

// Create bulk-inserts the supplied notification specs. When tx is non-nil the
// insert joins the caller's transaction; otherwise the service's own handle
// is used.
func (s *NotificationService) Create(ctx context.Context, specs []NotificationSpec, tx *gorm.DB) ([]models.Notification, error) {
	ctx = ensureContext(ctx)
	if len(specs) == 0 {
		return nil, nil
	}

	rows := make([]models.Notification, 0, len(specs))
	for _, spec := range specs {
		userIDs := normaliseIDs(spec.UserIDs)
		if len(userIDs) == 0 {
			return nil, errors.New("notification service: at least one recipient is required")
		}
		if spec.Body == "" {
			return nil, errors.New("notification service: message body is required")
		}

		row := models.Notification{
			ScheduleDate: spec.ScheduleDate,
			Message:      spec.Body,
			Title:        spec.Title,
			Subtitle:     spec.Subtitle,
			Priority:     models.Priority(defaultIfEmpty(string(spec.Priority), string(models.PriorityNormal))),
			UserIDs:      datatypes.NewJSONSlice(userIDs),
		}
		if spec.Data != nil {
			payload, err := json.Marshal(spec.Data)
			if err != nil {
				return nil, fmt.Errorf("notification service: marshal data: %w", err)
			}
			row.Data = datatypes.JSON(payload)
		}
		rows = append(rows, row)
	}

	handle := tx
	if handle == nil {
		handle = s.db
	}
	if err := handle.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notifications: %w", err)
	}

	return rows, nil
}

// DueBetween returns unsent notifications scheduled inside [start, end],
// already overdue, or carrying no schedule at all.
func (s *NotificationService) DueBetween(ctx context.Context, start, end time.Time) ([]models.Notification, error) {
	ctx = ensureContext(ctx)

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("is_sent = ?", false).
		Where("schedule_date BETWEEN ? AND ? OR schedule_date < ? OR schedule_date IS NULL", start, end, start).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: due between: %w", err)
	}
	return rows, nil
}

// ListForUser pages through a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]NotificationDTO, int64, error) {
	ctx = ensureContext(ctx)
	if userID == "" {
		return nil, 0, errors.New("notification service: user id is required")
	}
	if limit <= 0 {
		limit = 25
	}

	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where(datatypes.JSONArrayQuery("user_ids").Contains(userID))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count for user: %w", err)
	}

	var rows []models.Notification
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list for user: %w", err)
	}

	out := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapNotification(row))
	}
	return out, total, nil
}

// MarkSent stamps the supplied notifications as sent. Already-sent or unknown
// ids are skipped; the affected row count is returned.
func (s *NotificationService) MarkSent(ctx context.Context, ids []string) (int64, error) {
	ctx = ensureContext(ctx)
	ids = normaliseIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id IN ? AND is_sent = ?", ids, false).
		Updates(map[string]any{"is_sent": true, "sent_at": s.now().UTC()})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark sent: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DispatchDue delivers every notification due inside the next minute and
// returns how many were dispatched. Concurrent calls cannot double-send: each
// row is claimed with a conditional update before any delivery happens.
func (s *NotificationService) DispatchDue(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	start := s.now()

	due, err := s.DueBetween(ctx, start, start.Add(dispatchWindow))
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	return s.dispatch(ctx, due)
}

// dispatch claims and delivers the supplied notifications.
func (s *NotificationService) dispatch(ctx context.Context, due []models.Notification) (int, error) {
	claimed := make([]models.Notification, 0, len(due))
	for _, row := range due {
		result := s.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id = ? AND is_sent = ?", row.ID, false).
			Updates(map[string]any{"is_sent": true, "sent_at": s.now().UTC()})
		if result.Error != nil {
			return 0, fmt.Errorf("notification service: claim notification: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Another dispatcher got there first.
			continue
		}
		now := s.now().UTC()
		row.IsSent = true
		row.SentAt = &now
		claimed = append(claimed, row)
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	recipients := make([]string, 0, len(claimed))
	for _, row := range claimed {
		recipients = append(recipients, row.UserIDs...)
	}
	tokensByUser, err := s.tokensByUserIDs(ctx, normaliseIDs(recipients))
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, row := range claimed {
		tokens := make([]string, 0, len(row.UserIDs))
		for _, userID := range row.UserIDs {
			tokens = append(tokens, tokensByUser[userID]...)
		}

		s.broadcast(row)

		if len(tokens) == 0 {
			// No registered devices; the in-app mirror is all we can do.
			dispatched++
			continue
		}

		msg := push.Message{
			To:       tokens,
			Title:    row.Title,
			Subtitle: row.Subtitle,
			Body:     row.Message,
			Data:     decodeData(row.Data),
			Sound:    "default",
		}
		if row.Priority == models.PriorityHigh {
			msg.Priority = "high"
		}

		if s.sender != nil {
			if _, err := s.sender.Send(ctx, msg); err != nil {
				metrics.NotificationsDispatched.WithLabelValues("failed").Inc()
				s.log.Error("push delivery failed",
					zap.String("notification_id", row.ID),
					zap.Error(err))
				continue
			}
		}

		metrics.NotificationsDispatched.WithLabelValues("sent").Inc()
		dispatched++
	}

	return dispatched, nil
}

// NotifyUsers persists and immediately delivers one notification to the
// supplied users.
func (s *NotificationService) NotifyUsers(ctx context.Context, userIDs []string, spec NotificationSpec) error {
	ctx = ensureContext(ctx)
	spec.UserIDs = userIDs
	spec.ScheduleDate = nil

	rows, err := s.Create(ctx, []NotificationSpec{spec}, nil)
	if err != nil {
		return err
	}
	if _, err := s.dispatch(ctx, rows); err != nil {
		return err
	}
	return nil
}

// NotifyPersons resolves the users linked to the supplied persons and sends
// them one immediate notification.
func (s *NotificationService) NotifyPersons(ctx context.Context, personIDs []string, spec NotificationSpec) error {
	ctx = ensureContext(ctx)
	personIDs = normaliseIDs(personIDs)
	if len(personIDs) == 0 {
		return nil
	}

	var userIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("person_id IN ?", personIDs).
		Pluck("id", &userIDs).Error; err != nil {
		return fmt.Errorf("notification service: resolve users by person: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}

	return s.NotifyUsers(ctx, userIDs, spec)
}

// tokensByUserIDs resolves every push token for the supplied users in a
// single query.
func (s *NotificationService) tokensByUserIDs(ctx context.Context, userIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []models.PushToken
	if err := s.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: resolve push tokens: %w", err)
	}

	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Token)
	}
	return out, nil
}

func (s *NotificationService) broadcast(row models.Notification) {
	if s.hub == nil {
		return
	}
	dto := mapNotification(row)
	s.hub.BroadcastMany(row.UserIDs, notifications.Event{
		Event:        "notification.created",
		Notification: &dto,
	})
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:           row.ID,
		ScheduleDate: row.ScheduleDate,
		Title:        row.Title,
		Subtitle:     row.Subtitle,
		Message:      row.Message,
		Priority:     string(row.Priority),
		UserIDs:      row.UserIDs,
		IsSent:       row.IsSent,
		SentAt:       row.SentAt,
		CreatedAt:    row.CreatedAt,
	}
}

func decodeData(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
