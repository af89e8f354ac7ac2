package passes

import "time"

// StatsConfig tunes the statistics cache.
type StatsConfig struct {
	// TTLSeconds is how long computed statistics are served; zero disables
	// caching.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"30"`
}

// TTL returns the cache lifetime.
func (c StatsConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
