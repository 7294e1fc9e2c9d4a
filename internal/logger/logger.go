package logger

import (
	"context"
	"errors"
	"strings"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/ordenes/internal/config"
)

// Names of the component loggers handed out by Module.
const (
	Importer  = "importer"
	Extractor = "extractor"
	Worker    = "worker"
)

// Module exposes the root Zap logger and the named component loggers.
var Module = fx.Provide(New, NewComponents)

// Components are child loggers for the import pipeline and the background
// worker. Consumers ask for them with a `name:"..."` tag.
type Components struct {
	fx.Out

	Importer  *zap.Logger `name:"importer"`
	Extractor *zap.Logger `name:"extractor"`
	Worker    *zap.Logger `name:"worker"`
}

// NewComponents derives the component loggers from root.
func NewComponents(root *zap.Logger) Components {
	return Components{
		Importer:  Named(root, Importer),
		Extractor: Named(root, Extractor),
		Worker:    Named(root, Worker),
	}
}

// Named returns a child of root tagged with component. A nil root yields a
// no-op logger.
func Named(root *zap.Logger, component string) *zap.Logger {
	if root == nil {
		return zap.NewNop()
	}
	return root.Named(component).With(zap.String("component", component))
}

// New builds the root logger from the observability settings and syncs it
// when the application stops.
func New(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	obs := cfg.Observability

	logger, err := buildConfig(obs).Build()
	if err != nil {
		return nil, err
	}
	logger = logger.With(
		zap.String("service", obs.ServiceName),
		zap.String("environment", obs.Environment),
	)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stderr attached to a pipe or terminal cannot be fsynced.
			if err := logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
				return err
			}
			return nil
		},
	})
	return logger, nil
}

// buildConfig selects a console encoder for local runs and JSON otherwise.
// Unknown levels fall back to info.
func buildConfig(obs config.Observability) zap.Config {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(obs.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	if obs.LogEncoding == "console" {
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapCfg
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = "json"
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	zapCfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	zapCfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapCfg
}
