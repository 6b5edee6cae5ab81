package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SubscriptionConfig holds the tunable windows used when provisioning subscriptions.
type SubscriptionConfig struct {
	TrialDays      int           `mapstructure:"trialDays"`
	FreePeriodDays int           `mapstructure:"freePeriodDays"`
	PlanCacheTTL   time.Duration `mapstructure:"planCacheTTL"`
}

func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{
		TrialDays:      30,
		FreePeriodDays: 365,
		PlanCacheTTL:   10 * time.Minute,
	}
}

// TrialDuration is the length of a trial window.
func (c SubscriptionConfig) TrialDuration() time.Duration {
	return time.Duration(c.TrialDays) * 24 * time.Hour
}

// FreePeriodEnd returns the end of a Free validity window starting at start.
func (c SubscriptionConfig) FreePeriodEnd(start time.Time) time.Time {
	if c.FreePeriodDays == 365 {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 0, c.FreePeriodDays)
}

type SubscriptionConfigHolder struct {
	current atomic.Value // holds SubscriptionConfig
}

// NewStaticSubscriptionConfigHolder returns a holder that never reloads.
func NewStaticSubscriptionConfigHolder(cfg SubscriptionConfig) *SubscriptionConfigHolder {
	holder := &SubscriptionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewSubscriptionConfigHolder(cfg Config) (*SubscriptionConfigHolder, error) {
	v := viper.New()

	if path := strings.TrimSpace(cfg.SubscriptionConfigPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("subscription")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/eventtria")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("EVENTTRIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSubscriptionConfig()
	v.SetDefault("subscription.trialDays", defaults.TrialDays)
	v.SetDefault("subscription.freePeriodDays", defaults.FreePeriodDays)
	v.SetDefault("subscription.planCacheTTL", defaults.PlanCacheTTL)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var loaded SubscriptionConfig
	if err := v.UnmarshalKey("subscription", &loaded); err != nil {
		return nil, err
	}
	if err := validateSubscriptionConfig(loaded); err != nil {
		return nil, err
	}

	holder := NewStaticSubscriptionConfigHolder(loaded)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SubscriptionConfig
		if err := v.UnmarshalKey("subscription", &updated); err != nil {
			log.Printf("[subscription-config] reload failed: %v", err)
			return
		}
		if err := validateSubscriptionConfig(updated); err != nil {
			log.Printf("[subscription-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[subscription-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *SubscriptionConfigHolder) Get() SubscriptionConfig {
	return h.current.Load().(SubscriptionConfig)
}

func validateSubscriptionConfig(cfg SubscriptionConfig) error {
	if cfg.TrialDays <= 0 {
		return errors.New("subscription.trialDays must be positive")
	}
	if cfg.FreePeriodDays <= 0 {
		return errors.New("subscription.freePeriodDays must be positive")
	}
	if cfg.PlanCacheTTL < 0 {
		return errors.New("subscription.planCacheTTL cannot be negative")
	}
	return nil
}
