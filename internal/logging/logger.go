// Package logging provides the pipeline's two logging surfaces: a
// zap-based operational logger for phase transitions and component
// start/stop, and an audit-event-as-fact logger (see audit.go) that
// gives MutationHistory and LearningStore writes an append-only trail.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process-wide zap logger. level is one of
// debug, info, warn, error; format is json or console, matching
// config.LoggingConfig.
func NewLogger(level, format string) (*zap.Logger, error) {
	var zcfg zap.Config
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: parsing level %q: %w", level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: building zap logger: %w", err)
	}
	return logger, nil
}

// PhaseLogger scopes a logger to one pipeline phase (lowering,
// emission, smoke, repair), matching the teacher's pattern of
// attaching a fixed set of fields to every log line for a component.
func PhaseLogger(base *zap.Logger, appID, phase string) *zap.Logger {
	return base.With(zap.String("app_id", appID), zap.String("phase", phase))
}
