package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface used across the pipeline.
// Every entry carries a human message, a stable kind tag and a bag of
// contextual fields.
type Logger interface {
	DebugObj(msg, kind string, fields map[string]any)
	InfoObj(msg, kind string, fields map[string]any)
	WarnObj(msg, kind string, fields map[string]any)
	ErrorObj(msg, kind string, fields map[string]any)
}

// zapLogger implements Logger on top of a zap.Logger.
type zapLogger struct {
	z *zap.Logger
}

// New builds a zap-backed Logger at the given level (debug, info, warn, error).
func New(level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

func (l *zapLogger) DebugObj(msg, kind string, fields map[string]any) {
	l.z.Debug(msg, zapFields(kind, fields)...)
}

func (l *zapLogger) InfoObj(msg, kind string, fields map[string]any) {
	l.z.Info(msg, zapFields(kind, fields)...)
}

func (l *zapLogger) WarnObj(msg, kind string, fields map[string]any) {
	l.z.Warn(msg, zapFields(kind, fields)...)
}

func (l *zapLogger) ErrorObj(msg, kind string, fields map[string]any) {
	l.z.Error(msg, zapFields(kind, fields)...)
}

// zapFields flattens the kind tag and field bag into zap fields.
func zapFields(kind string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	out = append(out, zap.String("kind", kind))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// NopLogger discards all log entries.
type NopLogger struct{}

func (NopLogger) DebugObj(msg, kind string, fields map[string]any) {}
func (NopLogger) InfoObj(msg, kind string, fields map[string]any)  {}
func (NopLogger) WarnObj(msg, kind string, fields map[string]any)  {}
func (NopLogger) ErrorObj(msg, kind string, fields map[string]any) {}
