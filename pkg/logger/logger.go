package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"remora/pkg/errors"
)

// Logger is a sugared zap logger that forwards error-level entries to
// the configured error tracker.
type Logger struct {
	*zap.SugaredLogger
	tracker errors.Tracker
}

var global *Logger

// Init builds the global logger. Level names follow zap ("debug",
// "info", "warn", "error"); unknown names fall back to info.
// Production environments get JSON output, everything else gets the
// colored console encoder.
func Init(level string, env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	base, err := cfg.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	global = &Logger{SugaredLogger: base.Sugar()}
	return nil
}

// SetErrorTracker attaches a tracker that receives every error-level
// log entry. Call after Init.
func SetErrorTracker(t errors.Tracker) {
	if global != nil {
		global.tracker = t
	}
}

// Get returns the global logger, building a development fallback if
// Init was never called (tests, library consumers).
func Get() *Logger {
	if global == nil {
		base, _ := zap.NewDevelopment()
		global = &Logger{SugaredLogger: base.Sugar()}
	}
	return global
}

// With returns a child logger carrying the extra key-value pairs
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		tracker:       l.tracker,
	}
}

// Error logs at error level and reports to the tracker when one is set
func (l *Logger) Error(args ...interface{}) {
	l.SugaredLogger.Error(args...)
	l.capture(fmt.Errorf("%s", fmt.Sprint(args...)))
}

// Errorf logs a formatted error and reports it to the tracker
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
	l.capture(fmt.Errorf(template, args...))
}

// ErrorWithContext logs an error and reports it with the given tags
func (l *Logger) ErrorWithContext(ctx context.Context, err error, tags map[string]string) {
	l.SugaredLogger.Error(err)
	if l.tracker != nil {
		l.tracker.CaptureError(ctx, err, tags)
	}
}

func (l *Logger) capture(err error) {
	if l.tracker == nil {
		return
	}
	l.tracker.CaptureError(context.Background(), err, nil)
}

// Package-level shorthands on the global logger

func Debug(args ...interface{})                   { Get().Debug(args...) }
func Debugf(template string, args ...interface{}) { Get().Debugf(template, args...) }
func Info(args ...interface{})                    { Get().Info(args...) }
func Infof(template string, args ...interface{})  { Get().Infof(template, args...) }
func Warn(args ...interface{})                    { Get().Warn(args...) }
func Warnf(template string, args ...interface{})  { Get().Warnf(template, args...) }
func Error(args ...interface{})                   { Get().Error(args...) }
func Errorf(template string, args ...interface{}) { Get().Errorf(template, args...) }
func Fatal(args ...interface{})                   { Get().Fatal(args...) }
func Fatalf(template string, args ...interface{}) { Get().Fatalf(template, args...) }

// Sync flushes buffered entries; call on shutdown
func Sync() error {
	if global == nil {
		return nil
	}
	return global.SugaredLogger.Sync()
}
