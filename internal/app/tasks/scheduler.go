package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/pkg/logger"
)

const (
	defaultDispatchSpec         = "* * * * *"
	defaultDailyReminderSpec    = "0 18 * * *"
	defaultResetCodeCleanupSpec = "0 2 * * 0"

	bodyEvolutionLookback = 30 * 24 * time.Hour

	dailyReminderTitle = "Ainda dá tempo!"
	dailyReminderBody  = "Entra e cadastra rapidinho seu consumo alimentar de hoje aqui no meu app 😟"
)

// Scheduler coordinates the recurring background jobs: dispatching due
// notifications, nudging patients who stopped registering body evolution
// photos, and purging expired password reset codes.
type Scheduler struct {
	notifications *services.NotificationService
	patients      *services.PatientService
	auth          *services.AuthService
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger

	dispatchSchedule      string
	dailyReminderSchedule string
	resetCleanupSchedule  string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for due-date comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDispatchSchedule overrides the cron specification for notification dispatch.
func WithDispatchSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.dispatchSchedule = spec
		}
	}
}

// WithDailyReminderSchedule overrides the cron specification for the food consumption reminder.
func WithDailyReminderSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.dailyReminderSchedule = spec
		}
	}
}

// WithResetCodeCleanupSchedule overrides the cron specification for reset code cleanup.
func WithResetCodeCleanupSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.resetCleanupSchedule = spec
		}
	}
}

// NewScheduler constructs a Scheduler with sensible defaults. Any nil
// dependency results in the corresponding job being skipped.
func NewScheduler(notifications *services.NotificationService, patients *services.PatientService, auth *services.AuthService, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifications:         notifications,
		patients:              patients,
		auth:                  auth,
		now:                   time.Now,
		dispatchSchedule:      defaultDispatchSpec,
		dailyReminderSchedule: defaultDailyReminderSpec,
		resetCleanupSchedule:  defaultResetCodeCleanupSpec,
		log:                   logger.WithModule("tasks"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s
}

// Start registers the jobs with the cron scheduler and launches it.
func (s *Scheduler) Start() error {
	if s.notifications != nil {
		if _, err := s.cron.AddFunc(s.dispatchSchedule, func() {
			if err := s.dispatchDue(context.Background()); err != nil {
				s.log.Warn("notification dispatch failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if s.notifications != nil && s.patients != nil {
		if _, err := s.cron.AddFunc(s.dailyReminderSchedule, func() {
			if err := s.remindFoodConsumption(context.Background()); err != nil {
				s.log.Warn("food consumption reminder failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if s.auth != nil {
		if _, err := s.cron.AddFunc(s.resetCleanupSchedule, func() {
			if err := s.cleanupResetCodes(context.Background()); err != nil {
				s.log.Warn("reset code cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every configured job sequentially. Primarily used in tests
// and during graceful shutdown.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if s.notifications != nil {
		errs = multierr.Append(errs, s.dispatchDue(ctx))
	}
	if s.notifications != nil && s.patients != nil {
		errs = multierr.Append(errs, s.remindFoodConsumption(ctx))
	}
	if s.auth != nil {
		errs = multierr.Append(errs, s.cleanupResetCodes(ctx))
	}

	return errs
}

func (s *Scheduler) dispatchDue(ctx context.Context) error {
	dispatched, err := s.notifications.DispatchDue(ctx)
	if err != nil {
		return err
	}
	if dispatched > 0 {
		s.log.Info("dispatched scheduled notifications", zap.Int("count", dispatched))
	}
	return nil
}

// remindFoodConsumption nudges every patient who has not uploaded a body
// evolution photo in the last thirty days.
func (s *Scheduler) remindFoodConsumption(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-bodyEvolutionLookback)

	persons, err := s.patients.PersonsWithoutRecentBodyEvolution(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(persons) == 0 {
		return nil
	}

	return s.notifications.NotifyPersons(ctx, persons, services.NotificationSpec{
		Title: dailyReminderTitle,
		Body:  dailyReminderBody,
	})
}

func (s *Scheduler) cleanupResetCodes(ctx context.Context) error {
	removed, err := s.auth.CleanupExpiredResetCodes(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("removed expired reset codes", zap.Int64("count", removed))
	}
	return nil
}
