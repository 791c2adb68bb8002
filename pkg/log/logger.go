package log

import "context"

type Logger interface {
	Info(ctx context.Context, format string, args ...interface{})
	Alert(ctx context.Context, format string, args ...interface{})
	Error(ctx context.Context, format string, args ...interface{})
	Warn(ctx context.Context, format string, args ...interface{})
	Debug(ctx context.Context, format string, args ...interface{})
	Notice(ctx context.Context, format string, args ...interface{})
	Critical(ctx context.Context, format string, args ...interface{})
	Emergency(ctx context.Context, format string, args ...interface{})
}

type ctxKey struct{}

// WithRequestID stores the request id so every logger can tag its lines.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// NewLogger picks the implementation named by driver ("zap" or "console").
func NewLogger(driver string, level string) (Logger, error) {
	switch driver {
	case "console", "csl":
		return NewCslLogger()
	default:
		logger, err := NewZapLogger(level)
		if err != nil {
			return nil, err
		}
		return logger, nil
	}
}
