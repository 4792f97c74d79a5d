package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DatabaseDriver represents supported document store drivers
type DatabaseDriver string

const (
	DriverMongoDB DatabaseDriver = "mongodb"
	DriverMemory  DatabaseDriver = "memory"
)

// NotificationDriver selects how queued notifications are delivered.
type NotificationDriver string

const (
	NotifyFCM NotificationDriver = "fcm"
	NotifyLog NotificationDriver = "log"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Limits       LimitsConfig       `mapstructure:"limits"`
	Discovery    DiscoveryConfig    `mapstructure:"discovery"`
	Notification NotificationConfig `mapstructure:"notification"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Reconcile    ReconcileConfig    `mapstructure:"reconcile"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Tracing      TracingConfig      `mapstructure:"tracing"`

	v *viper.Viper
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds document store connection settings
type DatabaseConfig struct {
	Driver     string        `mapstructure:"driver"`
	URI        string        `mapstructure:"uri"`
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Name       string        `mapstructure:"name"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	AuthSource string        `mapstructure:"auth_source"`
	ReplicaSet string        `mapstructure:"replica_set"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds bearer token verification settings
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// LimitsConfig holds the per-user quotas. These are hot-reloadable.
type LimitsConfig struct {
	MaxActiveSentInvitations     int `mapstructure:"max_active_sent_invitations"`
	MaxActiveReceivedInvitations int `mapstructure:"max_active_received_invitations"`
	MaxActiveChats               int `mapstructure:"max_active_chats"`
	MessageLimit                 int `mapstructure:"message_limit"`
	TranscriptLimit              int `mapstructure:"transcript_limit"`
}

// DiscoveryConfig holds batch sizing for candidate discovery
type DiscoveryConfig struct {
	PageSize     int `mapstructure:"page_size"`
	RandomLimit  int `mapstructure:"random_limit"`
	CandidateCap int `mapstructure:"candidate_cap"`
	Overfetch    int `mapstructure:"overfetch"`
	PromptSlots  int `mapstructure:"prompt_slots"`
}

// NotificationConfig holds the outbound notification channel settings
type NotificationConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	CredentialsJSON string        `mapstructure:"credentials_json"`
	QueueKey        string        `mapstructure:"queue_key"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	SendTimeout     time.Duration `mapstructure:"send_timeout"`
	BufferSize      int           `mapstructure:"buffer_size"`
}

// ReconcileConfig schedules the counter reconciliation job
type ReconcileConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Schedule  string        `mapstructure:"schedule"`
	BatchSize int           `mapstructure:"batch_size"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
}

// RateLimitConfig holds per-user limits for mutating routes
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry tracing settings
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"`
	Endpoint     string  `mapstructure:"endpoint"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// Load reads configuration from .env, the config file and environment variables
func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tandem/")

	v.SetEnvPrefix("TANDEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.v = v
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tandem")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", string(DriverMongoDB))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 27017)
	v.SetDefault("database.name", "tandem")
	v.SetDefault("database.timeout", 10*time.Second)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", os.Getenv("JWT_SECRET"))
	v.SetDefault("jwt.issuer", "tandem")

	v.SetDefault("limits.max_active_sent_invitations", 10)
	v.SetDefault("limits.max_active_received_invitations", 20)
	v.SetDefault("limits.max_active_chats", 5)
	v.SetDefault("limits.message_limit", 100)
	v.SetDefault("limits.transcript_limit", 200)

	v.SetDefault("discovery.page_size", 25)
	v.SetDefault("discovery.random_limit", 25)
	v.SetDefault("discovery.candidate_cap", 5000)
	v.SetDefault("discovery.overfetch", 2)
	v.SetDefault("discovery.prompt_slots", 3)

	v.SetDefault("notification.enabled", true)
	v.SetDefault("notification.driver", string(NotifyLog))
	v.SetDefault("notification.queue_key", "tandem:notifications")
	v.SetDefault("notification.max_attempts", 5)
	v.SetDefault("notification.send_timeout", 10*time.Second)
	v.SetDefault("notification.buffer_size", 1024)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.poll_interval", 200*time.Millisecond)
	v.SetDefault("worker.shutdown_timeout", 30*time.Second)

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.schedule", "0 */6 * * *")
	v.SetDefault("reconcile.batch_size", 500)
	v.SetDefault("reconcile.lock_ttl", 30*time.Minute)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 5.0)
	v.SetDefault("ratelimit.burst", 20)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.sampling_rate", 1.0)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Database.IsMongoDB() && c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	if c.Discovery.PageSize <= 0 || c.Discovery.CandidateCap <= 0 || c.Discovery.Overfetch <= 0 {
		return fmt.Errorf("discovery sizes must be positive")
	}
	return nil
}

// Validate checks that every quota is positive.
func (l LimitsConfig) Validate() error {
	switch {
	case l.MaxActiveSentInvitations <= 0:
		return fmt.Errorf("limits.max_active_sent_invitations must be positive")
	case l.MaxActiveReceivedInvitations <= 0:
		return fmt.Errorf("limits.max_active_received_invitations must be positive")
	case l.MaxActiveChats <= 0:
		return fmt.Errorf("limits.max_active_chats must be positive")
	case l.MessageLimit <= 0:
		return fmt.Errorf("limits.message_limit must be positive")
	case l.TranscriptLimit <= 0:
		return fmt.Errorf("limits.transcript_limit must be positive")
	}
	return nil
}

// MongoURI returns the MongoDB connection URI. An explicit uri wins.
func (c *DatabaseConfig) MongoURI() string {
	if c.URI != "" {
		return c.URI
	}
	var uri string
	if c.User != "" && c.Password != "" {
		uri = fmt.Sprintf("mongodb://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Name)
	} else {
		uri = fmt.Sprintf("mongodb://%s:%d/%s", c.Host, c.Port, c.Name)
	}
	return c.appendMongoOptions(uri)
}

func (c *DatabaseConfig) appendMongoOptions(uri string) string {
	params := []string{}
	if c.AuthSource != "" {
		params = append(params, "authSource="+c.AuthSource)
	}
	if c.ReplicaSet != "" {
		params = append(params, "replicaSet="+c.ReplicaSet)
	}
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}
	return uri
}

// IsMongoDB returns true if MongoDB driver is configured.
func (c *DatabaseConfig) IsMongoDB() bool {
	return c.Driver == string(DriverMongoDB)
}

// IsMemory returns true if the in-process store is configured.
func (c *DatabaseConfig) IsMemory() bool {
	return c.Driver == string(DriverMemory)
}

// Addr returns host:port of the Redis server.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the app runs in production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
