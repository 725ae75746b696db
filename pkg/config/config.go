package config

import "time"

// Config is the root configuration structure for Coracle.
type Config struct {
	// Server contains the listening socket and connection lifecycle settings.
	Server ServerConfig `yaml:"server"`

	// Limits contains admission-control settings.
	Limits LimitsConfig `yaml:"limits"`

	// Auth contains settings for the flat-file user store and sessions.
	Auth AuthConfig `yaml:"auth"`

	// Static contains settings for the static file handlers.
	Static StaticConfig `yaml:"static"`

	// Telemetry contains logging, metrics and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the TCP listener and the
// per-connection session loop.
type ServerConfig struct {
	// ListenAddress is the address and port to bind, "host:port".
	// Default: "[::1]:7878" (IPv6 loopback).
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the per-read deadline on a connection. A connection
	// that sends nothing for this long is closed without escalation.
	// Default: 5s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// ShutdownTimeout bounds how long graceful shutdown waits for active
	// sessions to drain before the process exits anyway.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AcceptBackoffInitial is the first retry delay after a transient
	// accept failure. Default: 200ms
	AcceptBackoffInitial time.Duration `yaml:"accept_backoff_initial"`

	// AcceptBackoffCeiling bounds the retry delay; a computed delay past
	// the ceiling makes the accept loop fail fatally. Default: 6s
	AcceptBackoffCeiling time.Duration `yaml:"accept_backoff_ceiling"`
}

// LimitsConfig contains admission-control configuration.
type LimitsConfig struct {
	// MaxConnections is the number of connections served concurrently.
	// Further connections wait for a free slot. Default: 5
	MaxConnections int `yaml:"max_connections"`
}

// AuthConfig contains configuration for the user store and session table.
type AuthConfig struct {
	// UsersFile is the path of the flat user credential file.
	// Default: "data/users.txt"
	UsersFile string `yaml:"users_file"`

	// SessionTTL is how long an issued session token stays valid.
	// Default: 24h
	SessionTTL time.Duration `yaml:"session_ttl"`

	// CleanupSchedule is a cron expression for the expired-session sweep.
	// Default: "@every 10m"
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

// StaticConfig contains configuration for static file serving.
type StaticConfig struct {
	// Dir is the directory served by the static routes. Default: "static"
	Dir string `yaml:"dir"`

	// Watch enables fsnotify-based cache invalidation for files in Dir.
	// Default: false
	Watch bool `yaml:"watch"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the handler format: json or text. Default: "text"
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus admin endpoint.
type MetricsConfig struct {
	// Enabled starts a sidecar HTTP listener exposing /metrics and
	// /healthz. Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the sidecar bind address. Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns span export on. Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint, "host:port".
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the reported service.name resource attribute.
	// Default: "coracle"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of request cycles sampled, 0.0-1.0.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `yaml:"insecure"`
}
