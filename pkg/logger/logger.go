package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	rootMu sync.RWMutex
	root   = zap.NewNop() // replaced by Init; nop keeps early callers safe
)

// Init builds the process-wide logger at the requested level. Unknown level
// strings fall back to info rather than failing startup.
func Init(level string) error {
	parsed := zapcore.InfoLevel
	_ = parsed.UnmarshalText([]byte(level))

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	rootMu.Lock()
	root = built
	rootMu.Unlock()
	return nil
}

// Logger returns the process-wide logger.
func Logger() *zap.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// Sync flushes any buffered entries. Safe to defer from main.
func Sync() error {
	return Logger().Sync()
}

// WithModule derives a child logger tagged with the owning module, so log
// lines can be filtered per subsystem.
func WithModule(name string) *zap.Logger {
	return Logger().With(zap.String("module", name))
}
