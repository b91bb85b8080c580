// Package logger provides package-level leveled logging backed by zap.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger

// Init initializes the package-level logger at the given level
// (debug, info, warn, error). Unknown levels fall back to info.
// Debug level switches to the human-readable development encoder.
func Init(level string) error {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}
	log = zapLogger.Sugar()
	return nil
}

// get returns the logger, building a fallback if Init was never called.
func get() *zap.SugaredLogger {
	if log == nil {
		fallback, _ := zap.NewProduction(zap.AddCallerSkip(1))
		log = fallback.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

// Debugf logs a formatted message at debug level.
func Debugf(template string, args ...interface{}) {
	get().Debugf(template, args...)
}

// Infof logs a formatted message at info level.
func Infof(template string, args ...interface{}) {
	get().Infof(template, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(template string, args ...interface{}) {
	get().Warnf(template, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(template string, args ...interface{}) {
	get().Errorf(template, args...)
}

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(template string, args ...interface{}) {
	get().Fatalf(template, args...)
}
