package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// Init builds the process logger from the configured level and format
// ("text" or "json").
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	if format == "text" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func Named(name string) *zap.Logger {
	return logger.Named(name)
}

func Sync() {
	_ = logger.Sync()
}
