package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/s0up4200/vkbot/api"
	"github.com/s0up4200/vkbot/auth"
)

// EnvPrefix prefixes every environment override, e.g. VKBOT_VK_PASSWORD.
const EnvPrefix = "VKBOT"

// Load loads the configuration from file and environment. An explicit path
// must exist; when no path is given a missing config file is not an error
// and the environment alone may configure the bot.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".vkbot"))
		}
		v.AddConfigPath("/etc/vkbot/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key that may come
// from the environment needs a default so AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	// VK defaults
	v.SetDefault("vk.app_id", "5746984")
	v.SetDefault("vk.scope", auth.DefaultScope)
	v.SetDefault("vk.api_version", api.DefaultVersion)
	v.SetDefault("vk.login", "")
	v.SetDefault("vk.password", "")
	v.SetDefault("vk.token", "")
	v.SetDefault("vk.two_factor_key", "")
	v.SetDefault("vk.timeout", "30s")
	v.SetDefault("vk.user_agent", auth.DefaultUserAgent)

	// Retry defaults
	v.SetDefault("retry.max_attempts", api.DefaultMaxAttempts)
	v.SetDefault("retry.delay", api.DefaultRetryDelay.String())
	v.SetDefault("retry.rate_limit", api.DefaultRequestsPerSecond)

	// Poll defaults
	v.SetDefault("poll.interval", "1s")
	v.SetDefault("poll.workers", 4)
	v.SetDefault("poll.filter", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if err := cfg.VK.Credentials().Validate(); err != nil {
		return err
	}

	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay must not be negative")
	}
	if cfg.Retry.RateLimit < 0 {
		return fmt.Errorf("retry.rate_limit must not be negative")
	}

	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if cfg.Poll.Workers < 1 {
		return fmt.Errorf("poll.workers must be at least 1, got %d", cfg.Poll.Workers)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
