package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// LogEnvironment selects the log format
type LogEnvironment string

const (
	// EnvironmentProduction logs JSON lines
	EnvironmentProduction LogEnvironment = "production"
	// EnvironmentDevelopment logs human readable console lines
	EnvironmentDevelopment LogEnvironment = "development"
)

// LogConfig configures the logger
type LogConfig struct {
	// Environment defining the log format ("production" or "development").
	Environment LogEnvironment `toml:"environment"`
	// Level of log, e.g. debug, info, warn
	Level string `toml:"level"`
	// Outputs are zap sink URLs or paths; "stderr" and "stdout" are special
	Outputs []string `toml:"outputs"`
}

// Validate checks the environment and level
func (l LogConfig) Validate() error {
	if l.Environment != EnvironmentProduction && l.Environment != EnvironmentDevelopment {
		return core.NewError(core.KindInvalidConfig, "log.environment",
			"must be 'production' or 'development', got '%s'", l.Environment)
	}
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return core.WrapError(core.KindInvalidConfig, "log.level", err, "invalid level")
	}
	return nil
}

// NewLogger builds a zap logger from the configuration
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var zc zap.Config
	if cfg.Environment == EnvironmentDevelopment {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, core.WrapError(core.KindInvalidConfig, "log.level", err, "invalid level")
	}
	zc.Level = level
	if len(cfg.Outputs) > 0 {
		zc.OutputPaths = cfg.Outputs
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, core.WrapError(core.KindInvalidConfig, "log.outputs", err, "failed to build logger")
	}
	return logger, nil
}
