package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress        = "[::1]:7878"
	DefaultReadTimeout          = 5 * time.Second
	DefaultShutdownTimeout      = 30 * time.Second
	DefaultAcceptBackoffInitial = 200 * time.Millisecond
	DefaultAcceptBackoffCeiling = 6 * time.Second

	// Limits defaults
	DefaultMaxConnections = 5

	// Auth defaults
	DefaultUsersFile       = "data/users.txt"
	DefaultSessionTTL      = 24 * time.Hour
	DefaultCleanupSchedule = "@every 10m"

	// Static defaults
	DefaultStaticDir = "static"

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultTracingEndpoint      = "localhost:4317"
	DefaultTracingServiceName   = "coracle"
	DefaultTracingSampleRatio   = 1.0
)

// Default returns a configuration populated entirely with default values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any field left at its zero value.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.AcceptBackoffInitial == 0 {
		cfg.Server.AcceptBackoffInitial = DefaultAcceptBackoffInitial
	}
	if cfg.Server.AcceptBackoffCeiling == 0 {
		cfg.Server.AcceptBackoffCeiling = DefaultAcceptBackoffCeiling
	}

	if cfg.Limits.MaxConnections == 0 {
		cfg.Limits.MaxConnections = DefaultMaxConnections
	}

	if cfg.Auth.UsersFile == "" {
		cfg.Auth.UsersFile = DefaultUsersFile
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = DefaultSessionTTL
	}
	if cfg.Auth.CleanupSchedule == "" {
		cfg.Auth.CleanupSchedule = DefaultCleanupSchedule
	}

	if cfg.Static.Dir == "" {
		cfg.Static.Dir = DefaultStaticDir
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
}
