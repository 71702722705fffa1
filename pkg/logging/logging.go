// Package logging builds the zap logger shared by every ctxgather command.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup returns a development logger when debug is set, otherwise a production
// logger that only reports warnings and errors. Both write to stderr and carry the
// application name and version on every entry.
func Setup(debug bool, appName, appVersion string) (*zap.Logger, error) {
	var cfg zap.Config

	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	cfg.InitialFields = map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop(), err
	}
	return logger, nil
}
