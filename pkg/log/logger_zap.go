package log

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts zap to the Logger interface. Levels zap lacks
// (notice, alert, critical, emergency) are kept in a "severity" field.
type ZapLogger struct {
	base *zap.Logger
}

func NewZapLogger(level string) (*ZapLogger, error) {
	config := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := config.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return &ZapLogger{base: base}, nil
}

// NewZapLoggerFrom wraps an existing zap logger.
func NewZapLoggerFrom(base *zap.Logger) *ZapLogger {
	return &ZapLogger{base: base}
}

func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

func (l *ZapLogger) write(ctx context.Context, level zapcore.Level, severity string, format string, args ...interface{}) {
	ce := l.base.Check(level, fmt.Sprintf(format, args...))
	if ce == nil {
		return
	}
	fields := make([]zap.Field, 0, 2)
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if severity != "" {
		fields = append(fields, zap.String("severity", severity))
	}
	ce.Write(fields...)
}

func (l *ZapLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.write(ctx, zapcore.InfoLevel, "", format, args...)
}

func (l *ZapLogger) Alert(ctx context.Context, format string, args ...interface{}) {
	l.write(ctx, zapcore.ErrorLevel, "alert", format, args...)
}

func (l *ZapLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.write(ctx, zapcore.ErrorLevel, "", format, args...)
}

func (l *ZapLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.write(ctx, zapcore.WarnLevel, "", format, args...)
}

func (l *ZapLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.write(ctx, zapcore.DebugLevel, "", format, args...)
}

func (l *ZapLogger) Notice(ctx context.Context, format string, args ...interface{}) {
	l.write(ctx, zapcore.InfoLevel, "notice", format, args...)
}

func (l *ZapLogger) Critical(ctx context.Context, format string, args ...interface{}) {
	l.write(ctx, zapcore.ErrorLevel, "critical", format, args...)
}

// Emergency logs at error level; it never exits the process.
func (l *ZapLogger) Emergency(ctx context.Context, format string, args ...interface{}) {
	l.write(ctx, zapcore.ErrorLevel, "emergency", format, args...)
}
