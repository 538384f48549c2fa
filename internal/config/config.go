package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Session    SessionConfig    `yaml:"session"`
	Invitation InvitationConfig `yaml:"invitation"`
	Selector   SelectorConfig   `yaml:"selector"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// RateLimitConfig holds rate limiting settings for auth endpoints.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"          env-default:"true"`
	Register        int           `yaml:"register"         env:"RATE_LIMIT_REGISTER"         env-default:"5"`
	Login           int           `yaml:"login"            env:"RATE_LIMIT_LOGIN"             env-default:"10"`
	Refresh         int           `yaml:"refresh"          env:"RATE_LIMIT_REFRESH"           env-default:"20"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL"  env-default:"5m"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// SessionConfig holds opaque-session issuance settings.
type SessionConfig struct {
	Duration time.Duration `yaml:"duration" env:"SESSION_DURATION" env-default:"720h"`
}

// InvitationConfig holds pre-registration invitation settings.
type InvitationConfig struct {
	ExpiryDays int `yaml:"expiry_days" env:"INVITATION_EXPIRY_DAYS" env-default:"30"`
}

// SelectorConfig holds session-selector defaults that apply absent a
// per-user override in domain.UserSettings.
type SelectorConfig struct {
	DefaultNewCardsPerDay int `yaml:"default_new_cards_per_day" env:"SELECTOR_DEFAULT_NEW_CARDS_PER_DAY" env-default:"20"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// SchedulerConfig holds the FSRS-family scheduling parameters that apply
// absent a per-user override in domain.UserSettings.
type SchedulerConfig struct {
	DefaultRetention   float64 `yaml:"default_retention"    env:"SCHEDULER_DEFAULT_RETENTION"   env-default:"0.9"`
	MaxIntervalDays    int     `yaml:"max_interval_days"    env:"SCHEDULER_MAX_INTERVAL"        env-default:"365"`
	EnableFuzz         bool    `yaml:"enable_fuzz"          env:"SCHEDULER_ENABLE_FUZZ"         env-default:"true"`
	LearningStepsRaw   string  `yaml:"learning_steps"       env:"SCHEDULER_LEARNING_STEPS"      env-default:"1m,10m"`
	RelearningStepsRaw string  `yaml:"relearning_steps"     env:"SCHEDULER_RELEARNING_STEPS"    env-default:"10m"`
	AlgorithmVersion   string  `yaml:"algorithm_version"    env:"SCHEDULER_ALGORITHM_VERSION"   env-default:"fsrs-5.0"`

	// LearningSteps is parsed from LearningStepsRaw during validation.
	LearningSteps []time.Duration `yaml:"-" env:"-"`
	// RelearningSteps is parsed from RelearningStepsRaw during validation.
	RelearningSteps []time.Duration `yaml:"-" env:"-"`
}
