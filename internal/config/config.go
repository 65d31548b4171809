// Package config provides configuration loading and validation for the matchmaker service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults for the workflow engine. The expiry window mirrors the production
// review deadline; shorten it via config for fast feedback loops.
const (
	DefaultRetryLimit    = 3
	DefaultBackoffBase   = 2 * time.Second
	DefaultExpiryWindow  = 24 * time.Hour
	DefaultCandidateCron = "*/5 * * * *"
	DefaultWatchdogCron  = "* * * * *"
	DefaultFanoutLimit   = 4
	DefaultPort          = 8080
)

// Config holds the full service configuration. It can be loaded from a JSON
// file; environment variables override secrets and connection strings.
type Config struct {
	// Connections
	DatabaseURL  string `json:"database_url,omitempty" validate:"required"`
	GeminiAPIKey string `json:"gemini_api_key,omitempty" validate:"required"`

	// Notifications
	SlackBotToken string `json:"slack_bot_token,omitempty"`
	SlackChannel  string `json:"slack_channel,omitempty"`

	// HTTP
	Port int `json:"port,omitempty" validate:"gte=0,lte=65535"`

	// Workflow engine
	// RetryLimit is a pointer so that an explicit 0 (no retries) is
	// distinguishable from the field being absent from the file.
	RetryLimit    *int     `json:"retry_limit,omitempty" validate:"omitempty,gte=0"`
	BackoffBase   Duration `json:"backoff_base,omitempty"`
	ExpiryWindow  Duration `json:"expiry_window,omitempty"`
	CandidateCron string   `json:"candidate_cron,omitempty"`
	WatchdogCron  string   `json:"watchdog_cron,omitempty"`
	FanoutLimit   int      `json:"fanout_limit,omitempty" validate:"gte=0"`

	// Auth
	JWTSecret          string `json:"jwt_secret,omitempty"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty" validate:"gte=0"`
}

// Retries returns the configured retry limit. It is only valid after Load has
// filled defaults.
func (c *Config) Retries() int {
	if c.RetryLimit == nil {
		return DefaultRetryLimit
	}
	return *c.RetryLimit
}

// Duration is a time.Duration that unmarshals from JSON strings like "24h".
type Duration time.Duration

// UnmarshalJSON parses either a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration value: %v", v)
	}
}

// MarshalJSON renders the duration in its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads configuration from an optional JSON file, applies environment
// overrides, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from environment variables. Environment
// always wins over the file so that deployments can rotate secrets without
// touching config files.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.SlackBotToken = v
	}
	if v := os.Getenv("SLACK_CHANNEL"); v != "" {
		c.SlackChannel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// applyDefaults fills zero values with engine defaults.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.RetryLimit == nil {
		limit := DefaultRetryLimit
		c.RetryLimit = &limit
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = Duration(DefaultBackoffBase)
	}
	if c.ExpiryWindow == 0 {
		c.ExpiryWindow = Duration(DefaultExpiryWindow)
	}
	if c.CandidateCron == "" {
		c.CandidateCron = DefaultCandidateCron
	}
	if c.WatchdogCron == "" {
		c.WatchdogCron = DefaultWatchdogCron
	}
	if c.FanoutLimit == 0 {
		c.FanoutLimit = DefaultFanoutLimit
	}
	if c.JWTExpirationHours == 0 {
		c.JWTExpirationHours = 24
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.BackoffBase < 0 {
		return fmt.Errorf("config error: 'backoff_base' must be non-negative")
	}
	if c.ExpiryWindow <= 0 {
		return fmt.Errorf("config error: 'expiry_window' must be positive")
	}
	return nil
}
