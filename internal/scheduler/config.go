package scheduler

import (
	"time"

	"github.com/smallbiznis/eventtria/internal/config"
)

// Config controls scheduler intervals and job timeouts.
type Config struct {
	RunInterval  time.Duration
	SweepTimeout time.Duration
	EnabledJobs  []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:  5 * time.Minute,
		SweepTimeout: 30 * time.Second,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:  cfg.Scheduler.Interval,
		SweepTimeout: cfg.Scheduler.SweepTimeout,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = defaults.SweepTimeout
	}
	return c
}
