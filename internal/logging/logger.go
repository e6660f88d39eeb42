// Package logging builds the process logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger based on level/format settings. Output goes to
// stderr and to every extra path given (e.g. a per-provider log file).
func NewLogger(level, format string, extraPaths ...string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.Set(strings.ToLower(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	format = strings.ToLower(strings.TrimSpace(format))
	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		format = "console"
	default:
		return nil, fmt.Errorf("invalid log format %q: use console or json", format)
	}

	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.Encoding = format
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	for _, p := range extraPaths {
		if p = strings.TrimSpace(p); p != "" {
			cfg.OutputPaths = append(cfg.OutputPaths, p)
		}
	}

	return cfg.Build()
}
