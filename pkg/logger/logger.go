package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level       string
	Development bool
	Encoding    string // "json" or "console"
	Service     string
}

// New creates a new zap logger
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "ts"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if cfg.Encoding != "" {
		zapConfig.Encoding = cfg.Encoding
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	log, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	if cfg.Service != "" {
		log = log.With(zap.String("service", cfg.Service))
	}
	return log, nil
}

// Default creates a logger from TANDEM_LOG_LEVEL and TANDEM_APP_ENVIRONMENT.
func Default() *zap.Logger {
	log, err := New(Config{
		Level:       os.Getenv("TANDEM_LOG_LEVEL"),
		Development: os.Getenv("TANDEM_APP_ENVIRONMENT") != "production",
		Encoding:    "console",
	})
	if err != nil {
		return zap.NewExample()
	}
	return log
}

// UserField is the canonical field for the acting user.
func UserField(userID string) zap.Field {
	return zap.String("user_id", userID)
}

// ConnectionField is the canonical field for a connection id.
func ConnectionField(connectionID string) zap.Field {
	return zap.String("connection_id", connectionID)
}
