// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the listings store; empty disables it.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// UpstreamAuthURL is the identity provider's base URL (login/refresh/logout endpoints).
	UpstreamAuthURL string `mapstructure:"UPSTREAM_AUTH_URL"`
	// SharedCookieDomain is the parent domain for the cross-subdomain token cookie
	// (e.g. ".eventfair.ro"). Empty disables cookie sharing.
	SharedCookieDomain string `mapstructure:"SHARED_COOKIE_DOMAIN"`
	// RefreshBuffer is how long before token expiry a refresh becomes due (e.g. "5m").
	RefreshBuffer string `mapstructure:"REFRESH_BUFFER"`
	// RefreshCooldown is the minimum gap between refresh attempts per session (e.g. "1m").
	RefreshCooldown string `mapstructure:"REFRESH_COOLDOWN"`
	// SessionLifetime caps sessions created without remember-me (e.g. "24h").
	SessionLifetime string `mapstructure:"SESSION_LIFETIME"`
	// RememberedSessionLifetime caps remember-me sessions (e.g. "168h").
	RememberedSessionLifetime string `mapstructure:"REMEMBERED_SESSION_LIFETIME"`
	// Env is the application environment (e.g. "development", "production").
	// Production marks the shared cookie Secure.
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zerolog level (e.g. "debug", "info").
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Telemetry (optional). When Kafka brokers are set, session lifecycle
	// events are emitted to Kafka.
	// TelemetryKafkaBrokers is a comma-separated broker list (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for session events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("UPSTREAM_AUTH_URL", "")
	v.SetDefault("SHARED_COOKIE_DOMAIN", "")
	v.SetDefault("REFRESH_BUFFER", "5m")
	v.SetDefault("REFRESH_COOLDOWN", "1m")
	v.SetDefault("SESSION_LIFETIME", "24h")
	v.SetDefault("REMEMBERED_SESSION_LIFETIME", "168h") // 7d
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "eventfair-session-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "eventfair-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.UpstreamAuthURL == "" {
		return nil, errors.New("config: UPSTREAM_AUTH_URL must be set")
	}

	return &cfg, nil
}

// Production reports whether the app runs in production (secure cookies).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// RefreshBufferDuration parses RefreshBuffer. Returns 5m if unset or invalid.
func (c *Config) RefreshBufferDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshBuffer)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// RefreshCooldownDuration parses RefreshCooldown. Returns 1m if unset or invalid.
func (c *Config) RefreshCooldownDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshCooldown)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// SessionLifetimeDuration parses SessionLifetime. Returns 24h if unset or invalid.
func (c *Config) SessionLifetimeDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionLifetime)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// RememberedSessionLifetimeDuration parses RememberedSessionLifetime. Returns 168h if unset or invalid.
func (c *Config) RememberedSessionLifetimeDuration() time.Duration {
	d, err := time.ParseDuration(c.RememberedSessionLifetime)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
