package backend

import (
	"context"

	"github.com/victoryapp/victory/internal/logging"
)

// leveledLogger adapts logging.Logger to retryablehttp. Attempt errors are
// logged as warnings since a retry may still succeed.
type leveledLogger struct {
	inner logging.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(context.Background(), msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(context.Background(), msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.inner.Info(context.Background(), msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(context.Background(), msg, keysAndValues...)
}
