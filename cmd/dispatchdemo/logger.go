package main

import (
	"fmt"

	"go.uber.org/zap"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.Sampling = nil
	if lvl.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = lvl
	}
	return cfg.Build()
}
