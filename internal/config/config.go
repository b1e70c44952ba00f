package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
	Sync     SyncConfig     `mapstructure:"sync"     validate:"required"`
	Whoop    WhoopConfig    `mapstructure:"whoop"    validate:"required"`
}

// ServerConfig contains settings for the ops HTTP surface (health, metrics).
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// WorkerConfig contains the dispatcher loop tunables. All intervals are
// expressed in whole seconds so they can be set from plain environment
// variables.
type WorkerConfig struct {
	// PollIntervalSeconds is how long a queue loop sleeps when no task is
	// eligible.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`

	// ErrorBackoffSeconds is how long a queue loop sleeps after a handler
	// failure before the next claim attempt.
	ErrorBackoffSeconds int `mapstructure:"error_backoff_seconds" validate:"required,gt=0"`

	// TaskTimeoutSeconds bounds a single handler invocation. A wedged
	// handler fails its task instead of blocking the queue forever.
	TaskTimeoutSeconds int `mapstructure:"task_timeout_seconds" validate:"required,gt=0"`
}

// SyncConfig contains the incremental sync window tunables.
type SyncConfig struct {
	// LookbackDays is the first-sync default window: with no local records,
	// a family syncs from now minus this many days.
	LookbackDays int `mapstructure:"lookback_days" validate:"required,gt=0"`

	// ResumeBufferHours is subtracted from the newest stored record's
	// timestamp when resuming, to tolerate late-arriving or amended
	// provider records near the boundary.
	ResumeBufferHours int `mapstructure:"resume_buffer_hours" validate:"required,gt=0"`

	// PageSize is the per-request record limit passed to the provider API.
	PageSize int `mapstructure:"page_size" validate:"required,gt=0,lte=50"`
}

// WhoopConfig contains the wearable provider API settings.
type WhoopConfig struct {
	BaseURL      string `mapstructure:"base_url"       validate:"required,url"`
	TokenURL     string `mapstructure:"token_url"      validate:"required,url"`
	ClientID     string `mapstructure:"client_id"      validate:"required"`
	ClientSecret string `mapstructure:"client_secret"  validate:"required"`

	// RequestsPerSecond caps the client-side request rate against the
	// provider API.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
}
