package config

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Limits is a concurrency-safe holder for the current quotas.
type Limits struct {
	current atomic.Pointer[LimitsConfig]
}

// NewLimits creates a holder seeded with cfg.
func NewLimits(cfg LimitsConfig) *Limits {
	l := &Limits{}
	l.Set(cfg)
	return l
}

// Get returns a copy of the current quotas.
func (l *Limits) Get() LimitsConfig {
	return *l.current.Load()
}

// Set replaces the current quotas.
func (l *Limits) Set(cfg LimitsConfig) {
	l.current.Store(&cfg)
}

// Watch reloads the config file on change and pushes new quotas into
// limits. It returns false when no config file is in use.
func (c *Config) Watch(limits *Limits, logger *zap.Logger) bool {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(c.v)
		if err != nil {
			logger.Warn("Ignoring invalid config reload", zap.String("file", e.Name), zap.Error(err))
			return
		}
		limits.Set(next.Limits)
		logger.Info("Quotas reloaded",
			zap.Int("max_active_sent_invitations", next.Limits.MaxActiveSentInvitations),
			zap.Int("max_active_received_invitations", next.Limits.MaxActiveReceivedInvitations),
			zap.Int("max_active_chats", next.Limits.MaxActiveChats),
			zap.Int("message_limit", next.Limits.MessageLimit),
		)
	})
	c.v.WatchConfig()
	return true
}
