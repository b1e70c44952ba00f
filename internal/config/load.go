package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and an optional config file.
// Environment variables (prefixed VITALSYNC_, with dots replaced by
// underscores, e.g. VITALSYNC_WORKER_POLL_INTERVAL_SECONDS) take precedence
// over values from the config file, which take precedence over defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file: ./config.yaml. Absence is fine; a malformed
	// file is not.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("VITALSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// every key that has a default or appears in the file.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for every tunable so a bare environment
// with just VITALSYNC_DATABASE_URL and the provider credentials boots.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("worker.poll_interval_seconds", 5)
	v.SetDefault("worker.error_backoff_seconds", 30)
	v.SetDefault("worker.task_timeout_seconds", 600)

	v.SetDefault("sync.lookback_days", 30)
	v.SetDefault("sync.resume_buffer_hours", 6)
	v.SetDefault("sync.page_size", 25)

	v.SetDefault("whoop.base_url", "https://api.prod.whoop.com/developer")
	v.SetDefault("whoop.token_url", "https://api.prod.whoop.com/oauth/oauth2/token")
	v.SetDefault("whoop.client_id", "")
	v.SetDefault("whoop.client_secret", "")
	v.SetDefault("whoop.requests_per_second", 4)
}
