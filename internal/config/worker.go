package config

import "time"

// WorkerConfig sizes the notification delivery pool
type WorkerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Concurrency     int           `mapstructure:"concurrency"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultWorkerConfig returns default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Enabled:         true,
		Concurrency:     4,
		PollInterval:    200 * time.Millisecond,
		ShutdownTimeout: 30 * time.Second,
	}
}

// DefaultLimitsConfig returns the default quotas.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxActiveSentInvitations:     10,
		MaxActiveReceivedInvitations: 20,
		MaxActiveChats:               5,
		MessageLimit:                 100,
		TranscriptLimit:              200,
	}
}

// DefaultDiscoveryConfig returns the default discovery sizing.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		PageSize:     25,
		RandomLimit:  25,
		CandidateCap: 5000,
		Overfetch:    2,
		PromptSlots:  3,
	}
}
