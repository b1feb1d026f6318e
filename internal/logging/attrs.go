package logging

import (
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so callers only import this package.
type Attr = slog.Attr

func Any(key string, value any) Attr                { return slog.Any(key, value) }
func Int(key string, value int) Attr                { return slog.Int(key, value) }
func Int64(key string, value int64) Attr            { return slog.Int64(key, value) }
func String(key, value string) Attr                 { return slog.String(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error records err under the "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger becomes
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// ErrorWithContext logs an error that always carries event_type and
// error_hint, filling defaults for whichever the caller left out.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	var haveType, haveHint bool
	args := make([]any, 0, len(attrs)+2)
	for _, a := range attrs {
		haveType = haveType || a.Key == FieldEventType
		haveHint = haveHint || a.Key == FieldErrorHint
		args = append(args, a)
	}
	if !haveType {
		args = append(args, slog.String(FieldEventType, eventType))
	}
	if !haveHint {
		args = append(args, slog.String(FieldErrorHint, "check logs for details"))
	}
	logger.Error(msg, args...)
}
