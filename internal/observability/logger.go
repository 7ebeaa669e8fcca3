// Package observability sets up structured logging and Prometheus metrics.
package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns the JSON logger of a harmonize command. Entries carry
// the command name under "cmd" and durations in seconds.
func NewLogger(command, level string) (*zap.Logger, error) {
	lvl, err := LogLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder
	cfg.InitialFields = map[string]any{"cmd": command}
	return cfg.Build()
}

// LogLevel parses a log.level setting. Empty means info.
func LogLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(s)
}
