package application

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger for cfg. Production uses JSON with ISO8601
// timestamps; anything else uses the colored console encoder. Every entry
// carries the service name and environment.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Environment == "production" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	// Results go to stdout; logs stay on stderr.
	zc.OutputPaths = []string{"stderr"}

	service := cfg.ServiceName
	if service == "" {
		service = "tender-eval"
	}
	return zc.Build(zap.Fields(
		zap.String("service", service),
		zap.String("environment", cfg.Environment),
	))
}
