package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"remora/pkg/errors"
)

const flushWait = 2 * time.Second

var levelMap = map[errors.Level]sentry.Level{
	errors.LevelDebug:   sentry.LevelDebug,
	errors.LevelInfo:    sentry.LevelInfo,
	errors.LevelWarning: sentry.LevelWarning,
	errors.LevelError:   sentry.LevelError,
	errors.LevelFatal:   sentry.LevelFatal,
}

// Tracker reports errors to Sentry
type Tracker struct {
	hub *sentry.Hub
}

// New initializes the Sentry SDK and returns a tracker bound to the
// current hub
func New(dsn string, environment string) (*Tracker, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return nil, err
	}
	return &Tracker{hub: sentry.CurrentHub()}, nil
}

// CaptureError sends an error with per-event tags. The hub is cloned
// so tags never leak between concurrent captures.
func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	hub := t.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
	hub.CaptureException(err)
	return nil
}

// CaptureMessage sends a plain message at the given level
func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	hub := t.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetLevel(toSentryLevel(level))
	})
	hub.CaptureMessage(message)
	return nil
}

// AddBreadcrumb records a preceding action on the shared hub
func (t *Tracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
	t.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Message:  message,
		Category: category,
		Level:    toSentryLevel(level),
		Data:     data,
	}, nil)
}

// Flush blocks until pending events are delivered or the wait elapses
func (t *Tracker) Flush(ctx context.Context) error {
	sentry.Flush(flushWait)
	return nil
}

func toSentryLevel(level errors.Level) sentry.Level {
	if l, ok := levelMap[level]; ok {
		return l
	}
	return sentry.LevelInfo
}
