// Package logging provides centralized logging functionality using zap.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger
var base *zap.Logger

// Init initializes the package-level logger. With debug set, logs are
// human-readable at debug level; otherwise JSON at info level.
func Init(debug bool) error {
	var logger *zap.Logger
	var err error

	if debug {
		logger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		logger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	base = logger
	sugar = logger.Sugar()
	return nil
}

// Base returns the underlying zap logger for callers that need the
// structured API directly.
func Base() *zap.Logger {
	if base == nil {
		// Fallback logger if not initialized
		base, _ = zap.NewProduction(zap.AddCallerSkip(1))
		sugar = base.Sugar()
	}
	return base
}

// Sugared returns the sugared logger instance.
func Sugared() *zap.SugaredLogger {
	if sugar == nil {
		Base()
	}
	return sugar
}

// Sync flushes any buffered log entries.
func Sync() {
	if sugar != nil {
		sugar.Sync()
	}
}

// Package-level convenience functions

func Debug(args ...interface{}) {
	Sugared().Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	Sugared().Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	Sugared().Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	Sugared().Info(args...)
}

func Infof(template string, args ...interface{}) {
	Sugared().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	Sugared().Infow(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	Sugared().Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	Sugared().Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	Sugared().Warnw(msg, keysAndValues...)
}

func Error(args ...interface{}) {
	Sugared().Error(args...)
}

func Errorf(template string, args ...interface{}) {
	Sugared().Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	Sugared().Errorw(msg, keysAndValues...)
}

func Fatalf(template string, args ...interface{}) {
	Sugared().Fatalf(template, args...)
}
