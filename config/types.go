package config

import (
	"time"

	"github.com/s0up4200/vkbot/auth"
)

// Config represents the complete configuration structure
type Config struct {
	VK      VKConfig      `mapstructure:"vk"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Poll    PollConfig    `mapstructure:"poll"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// VKConfig holds the application registration and account credentials
type VKConfig struct {
	AppID        string        `mapstructure:"app_id"`
	Scope        string        `mapstructure:"scope"`
	APIVersion   string        `mapstructure:"api_version"`
	Login        string        `mapstructure:"login"`
	Password     string        `mapstructure:"password"`
	Token        string        `mapstructure:"token"`
	TwoFactorKey string        `mapstructure:"two_factor_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// Credentials returns the auth credentials described by the config
func (c VKConfig) Credentials() auth.Credentials {
	return auth.Credentials{
		AppID:        c.AppID,
		Scope:        c.Scope,
		Login:        c.Login,
		Password:     c.Password,
		Token:        c.Token,
		TwoFactorKey: c.TwoFactorKey,
	}
}

// RetryConfig controls the request wrapper
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
	// RateLimit is the number of API calls per second; 0 disables throttling.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// PollConfig controls the long-poll message loop
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Workers  int           `mapstructure:"workers"`
	Filter   string        `mapstructure:"filter"`
}

// FilterConfig contains named filter presets. Viper lowercases the names.
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
