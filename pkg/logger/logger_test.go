package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantLevel zapcore.Level
	}{
		{"development", Config{Level: "debug", Development: true, Encoding: "console"}, zapcore.DebugLevel},
		{"production", Config{Level: "warn", Encoding: "json"}, zapcore.WarnLevel},
		{"invalid level falls back to info", Config{Level: "loud"}, zapcore.InfoLevel},
		{"with service name", Config{Level: "error", Service: "tandem"}, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !log.Core().Enabled(tt.wantLevel) {
				t.Errorf("New() level %v should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && log.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("New() level below %v should be disabled", tt.wantLevel)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("TANDEM_LOG_LEVEL", "info")
	t.Setenv("TANDEM_APP_ENVIRONMENT", "production")
	if Default() == nil {
		t.Error("Default() returned nil")
	}
}

func TestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	log.Info("invitation sent", UserField("u1"), ConnectionField("c1"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["user_id"] != "u1" || ctx["connection_id"] != "c1" {
		t.Errorf("fields = %v", ctx)
	}
}
