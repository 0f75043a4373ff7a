// Package logging wraps zap so the engine's components can emit
// structured, leveled events without making logging a correctness
// dependency: every call site treats a logging failure as unobservable.
package logging

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger is the narrow interface the engine's internal packages depend
// on. A *zap.SugaredLogger satisfies it directly.
type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
}

// New builds a development-mode logger tagged with a fresh correlation id
// so multiple engine instances in one process can be told apart in logs.
// level is one of "debug", "info", "warn", "error"; unrecognized values
// fall back to "info".
func New(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = lvl
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return base.Sugar().With("engine_id", uuid.NewString()), nil
}

// Nop returns a logger that discards everything, for tests and for
// callers that never configured one explicitly.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
