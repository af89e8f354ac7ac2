package server

import "time"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required by the admin endpoints.
	// Empty disables the check.
	ApiKey string `mapstructure:"api_key" default:""`
	// CorsOrigins is passed to the CORS middleware.
	CorsOrigins string `mapstructure:"cors_origins" default:"*"`
	// BodyLimitKB caps request bodies.
	BodyLimitKB int `mapstructure:"body_limit_kb" default:"64"`
	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" default:"10"`
}

// BodyLimit returns the body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitKB <= 0 {
		return 64 * 1024
	}
	return c.BodyLimitKB * 1024
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
