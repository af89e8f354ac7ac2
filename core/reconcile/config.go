package reconcile

import "time"

// Config holds the scheduled mirror sweep settings.
type Config struct {
	// Schedule is a cron expression; empty disables the sweep.
	Schedule string `mapstructure:"schedule" default:""`
	// CacheTTLSeconds is how long the store indices are reused.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"60"`
}

// CacheTTL returns the index cache lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
