package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/api"
	"github.com/nutriconsultas/backend/internal/app"
	"github.com/nutriconsultas/backend/internal/app/tasks"
	iauth "github.com/nutriconsultas/backend/internal/auth"
	"github.com/nutriconsultas/backend/internal/database"
	"github.com/nutriconsultas/backend/internal/notifications"
	"github.com/nutriconsultas/backend/internal/push"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/internal/storage"
	"github.com/nutriconsultas/backend/pkg/logger"
	"github.com/nutriconsultas/backend/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("nutriconsultas-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Info("generated runtime secret", zap.String("key", key))
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}

	pushTimeout := cfg.Push.Timeout
	if pushTimeout <= 0 {
		pushTimeout = 30 * time.Second
	}
	pushClient := push.NewClient(
		push.WithEndpoint(cfg.Push.Endpoint),
		push.WithHTTPClient(&http.Client{Timeout: pushTimeout}),
	)

	hub := notifications.NewHub()

	notificationSvc, err := services.NewNotificationService(db, hub, pushClient)
	if err != nil {
		return fmt.Errorf("initialise notification service: %w", err)
	}

	userSvc, err := services.NewUserService(db)
	if err != nil {
		return fmt.Errorf("initialise user service: %w", err)
	}
	patientSvc, err := services.NewPatientService(db, userSvc)
	if err != nil {
		return fmt.Errorf("initialise patient service: %w", err)
	}
	authSvc, err := services.NewAuthService(db, userSvc, jwtService, mailer)
	if err != nil {
		return fmt.Errorf("initialise auth service: %w", err)
	}

	if cfg.Tasks.Enabled {
		scheduler := tasks.NewScheduler(notificationSvc, patientSvc, authSvc,
			tasks.WithDispatchSchedule(cfg.Tasks.DispatchSpec),
			tasks.WithDailyReminderSchedule(cfg.Tasks.DailyReminderSpec),
			tasks.WithResetCodeCleanupSchedule(cfg.Tasks.ResetCodeCleanupSpec),
		)
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("start background jobs: %w", err)
		}
		defer func() {
			<-scheduler.Stop().Done()
		}()
	}

	router, err := api.NewRouter(api.Deps{
		DB:            db,
		JWT:           jwtService,
		Config:        cfg,
		Notifications: notificationSvc,
		Hub:           hub,
		Mailer:        mailer,
		Store:         storage.NewFileStore(cfg.Storage.BaseDir),
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.DatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(cfg.Database.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("database handle unavailable on shutdown", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("database close failed", zap.Error(err))
	}
}
