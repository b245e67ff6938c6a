// Package config builds the process-wide logger from Viper settings.
package config

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a zap logger from Viper settings:
//
//	logging.level          debug, info, warn, error (default "info")
//	logging.format         json, console (default "json")
//	logging.file           optional path; when set, logs go to a rotated file instead of stderr
//	logging.max_size_mb    rotation size (default 10)
//	logging.max_backups    rotated files kept (default 5)
func NewLogger(v *viper.Viper) (*zap.Logger, error) {
	level := v.GetString("logging.level")
	format := v.GetString("logging.format")

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q: must be \"json\" or \"console\"", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	path := v.GetString("logging.file")
	if path == "" {
		return cfg.Build()
	}

	maxSize := v.GetInt("logging.max_size_mb")
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := v.GetInt("logging.max_backups")
	if maxBackups <= 0 {
		maxBackups = 5
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	})

	var enc zapcore.Encoder
	if format == "console" {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	} else {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}
	return zap.New(zapcore.NewCore(enc, sink, cfg.Level), zap.AddCaller()), nil
}
