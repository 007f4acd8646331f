package logger

import "context"

type runLoggerKey struct{}

var discard Logger = &NoOpLogger{}

// WithContext attaches l to ctx. Code running under a harvest reads it back
// with FromContext so its entries carry the run's fields.
func WithContext(ctx context.Context, l Logger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, runLoggerKey{}, l)
}

// FromContext returns the logger attached by WithContext, or a logger that
// discards everything.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(runLoggerKey{}).(Logger); ok {
		return l
	}
	return discard
}
