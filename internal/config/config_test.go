package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func validConfig() Config {
	return Config{
		JWT:       JWTConfig{Secret: "test-secret"},
		Database:  DatabaseConfig{Driver: string(DriverMongoDB), Name: "tandem_test"},
		Limits:    DefaultLimitsConfig(),
		Discovery: DefaultDiscoveryConfig(),
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing JWT secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"missing mongo database name", func(c *Config) { c.Database.Name = "" }, true},
		{"memory driver needs no name", func(c *Config) {
			c.Database.Driver = string(DriverMemory)
			c.Database.Name = ""
		}, false},
		{"zero chat quota", func(c *Config) { c.Limits.MaxActiveChats = 0 }, true},
		{"zero message limit", func(c *Config) { c.Limits.MessageLimit = 0 }, true},
		{"zero page size", func(c *Config) { c.Discovery.PageSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_MongoURI(t *testing.T) {
	tests := []struct {
		name   string
		config DatabaseConfig
		want   string
	}{
		{
			name:   "explicit uri wins",
			config: DatabaseConfig{URI: "mongodb+srv://cluster.example/tandem", Host: "ignored"},
			want:   "mongodb+srv://cluster.example/tandem",
		},
		{
			name:   "no credentials",
			config: DatabaseConfig{Host: "localhost", Port: 27017, Name: "tandem"},
			want:   "mongodb://localhost:27017/tandem",
		},
		{
			name: "credentials and options",
			config: DatabaseConfig{
				Host: "db", Port: 27017, Name: "tandem", User: "app", Password: "pw",
				AuthSource: "admin", ReplicaSet: "rs0",
			},
			want: "mongodb://app:pw@db:27017/tandem?authSource=admin&replicaSet=rs0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.MongoURI(); got != tt.want {
				t.Errorf("MongoURI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TANDEM_JWT_SECRET", "test-secret-key")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Limits.MessageLimit != 100 {
		t.Errorf("Limits.MessageLimit = %v, want 100", cfg.Limits.MessageLimit)
	}
	if cfg.Limits.TranscriptLimit != 200 {
		t.Errorf("Limits.TranscriptLimit = %v, want 200", cfg.Limits.TranscriptLimit)
	}
	if cfg.Discovery.PageSize != 25 || cfg.Discovery.CandidateCap != 5000 || cfg.Discovery.Overfetch != 2 {
		t.Errorf("Discovery = %+v", cfg.Discovery)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if !cfg.Database.IsMongoDB() {
		t.Errorf("Database.Driver = %v, want mongodb", cfg.Database.Driver)
	}
}

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("TANDEM_JWT_SECRET", "test-secret-key")
	t.Setenv("TANDEM_DATABASE_DRIVER", "memory")
	t.Setenv("TANDEM_SERVER_PORT", "9000")
	t.Setenv("TANDEM_LIMITS_MAX_ACTIVE_CHATS", "3")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %v, want 9000", cfg.Server.Port)
	}
	if !cfg.Database.IsMemory() {
		t.Errorf("Database.Driver = %v, want memory", cfg.Database.Driver)
	}
	if cfg.Limits.MaxActiveChats != 3 {
		t.Errorf("Limits.MaxActiveChats = %v, want 3", cfg.Limits.MaxActiveChats)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("jwt:\n  secret: file-secret\nlimits:\n  max_active_sent_invitations: 7\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JWT.Secret != "file-secret" {
		t.Errorf("JWT.Secret = %v, want file-secret", cfg.JWT.Secret)
	}
	if cfg.Limits.MaxActiveSentInvitations != 7 {
		t.Errorf("MaxActiveSentInvitations = %v, want 7", cfg.Limits.MaxActiveSentInvitations)
	}
	if !cfg.Watch(NewLimits(cfg.Limits), zap.NewNop()) {
		t.Error("Watch() should start when a config file is in use")
	}
}

func TestLoad_InvalidLimits(t *testing.T) {
	t.Setenv("TANDEM_JWT_SECRET", "s")
	t.Setenv("TANDEM_LIMITS_MESSAGE_LIMIT", "0")
	t.Chdir(t.TempDir())

	if _, err := Load(); err == nil {
		t.Error("Load() should reject a zero message limit")
	}
}

func TestLimits_GetSet(t *testing.T) {
	l := NewLimits(DefaultLimitsConfig())
	if l.Get().MaxActiveChats != 5 {
		t.Errorf("Get().MaxActiveChats = %v, want 5", l.Get().MaxActiveChats)
	}

	next := DefaultLimitsConfig()
	next.MaxActiveChats = 9
	l.Set(next)
	if l.Get().MaxActiveChats != 9 {
		t.Errorf("Get().MaxActiveChats = %v, want 9", l.Get().MaxActiveChats)
	}
}

func TestWatch_NoConfigFile(t *testing.T) {
	cfg := validConfig()
	if cfg.Watch(NewLimits(cfg.Limits), zap.NewNop()) {
		t.Error("Watch() without a config file should return false")
	}
}

func TestRedisConfig_Addr(t *testing.T) {
	c := RedisConfig{Host: "cache", Port: 6380}
	if got := c.Addr(); got != "cache:6380" {
		t.Errorf("Addr() = %v, want cache:6380", got)
	}
}
