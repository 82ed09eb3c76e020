// Package noop provides a Tracker that discards everything. It stands
// in when error tracking is disabled and in tests.
package noop

import (
	"context"

	"remora/pkg/errors"
)

// Tracker discards all events
type Tracker struct{}

// New returns a discarding tracker
func New() *Tracker { return &Tracker{} }

func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	return nil
}

func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	return nil
}

func (t *Tracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
}

func (t *Tracker) Flush(ctx context.Context) error { return nil }
