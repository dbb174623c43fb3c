package app

import (
	"strings"

	"github.com/nutriconsultas/backend/pkg/logger"
)

const defaultLogLevel = "info"

// ConfigureLogging wires up the global logger from the configured level.
// A blank level means the operator did not care; use the default.
func ConfigureLogging(level string) error {
	if level = strings.TrimSpace(level); level == "" {
		level = defaultLogLevel
	}
	return logger.Init(level)
}
