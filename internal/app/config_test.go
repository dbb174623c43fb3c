package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nutriconsultas/backend/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Host)
	require.Equal(t, 5433, cfg.Database.Port)
	require.Equal(t, "nutriconsultas", cfg.Database.Name)
	require.Equal(t, "clinic", cfg.Database.User)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "clinic-api", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, "smtp-user", cfg.Email.SMTP.Username)
	require.Equal(t, "smtp-pass", cfg.Email.SMTP.Password)
	require.Equal(t, "no-reply@example.com", cfg.Email.SMTP.From)
	require.True(t, cfg.Email.SMTP.UseTLS)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.Equal(t, "https://push.example.com/send", cfg.Push.Endpoint)
	require.Equal(t, 5*time.Second, cfg.Push.Timeout)

	require.Equal(t, "/var/lib/nutriconsultas/uploads", cfg.Storage.BaseDir)
	require.Equal(t, "https://cdn.example.com/files", cfg.Storage.PublicBaseURL)

	require.False(t, cfg.Tasks.Enabled)
	require.Equal(t, "* * * * *", cfg.Tasks.DispatchSpec)
	require.Equal(t, "0 19 * * *", cfg.Tasks.DailyReminderSpec)
	require.Equal(t, "0 2 * * 0", cfg.Tasks.ResetCodeCleanupSpec)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "https://exp.host/--/api/v2/push/send", cfg.Push.Endpoint)
	require.True(t, cfg.Tasks.Enabled)
	require.Equal(t, "0 18 * * *", cfg.Tasks.DailyReminderSpec)
}

func TestAuthConfigAdapter(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
	}

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, jwtCfg)
}

func TestAuthConfigAdapterFallback(t *testing.T) {
	var cfg AuthConfig

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.DefaultAccessTokenTTL, jwtCfg.AccessTokenTTL)
}

func TestDatabaseConfigAdapter(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "mysql",
		Host:     "db.internal",
		Port:     3306,
		Name:     "clinic",
		User:     "app",
		Password: "pw",
	}

	dbCfg := cfg.DatabaseConfig()
	require.Equal(t, "mysql", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 3306, dbCfg.Port)
	require.Equal(t, "clinic", dbCfg.Name)
}

func TestEmailConfigAdapter(t *testing.T) {
	cfg := EmailConfig{
		SMTP: SMTPConfig{
			Enabled:  true,
			Host:     "smtp.example.com",
			Port:     2525,
			Username: "user",
			Password: "pass",
			From:     "no-reply@example.com",
			UseTLS:   true,
			Timeout:  10 * time.Second,
		},
	}

	settings := cfg.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "user", settings.Username)
	require.Equal(t, "pass", settings.Password)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.True(t, settings.UseTLS)
	require.Equal(t, 10*time.Second, settings.Timeout)
}
