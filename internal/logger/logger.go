package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap.Logger instance based on the provided configuration.
func NewLogger(level string, format string) (*zap.Logger, error) {
	log, _, err := NewLoggerWithLevel(level, format)
	return log, err
}

// NewLoggerWithLevel is NewLogger that also returns the logger's level so it
// can be changed while the process runs.
func NewLoggerWithLevel(level string, format string) (*zap.Logger, zap.AtomicLevel, error) {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	atom := zap.NewAtomicLevelAt(logLevel)
	cfg.Level = atom
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return log, atom, nil
}

// SetLevel parses level and applies it to atom. Invalid levels leave atom unchanged.
func SetLevel(atom zap.AtomicLevel, level string) error {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	atom.SetLevel(logLevel)
	return nil
}
