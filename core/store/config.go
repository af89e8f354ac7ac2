package store

import "time"

// Primary drivers.
const (
	PrimarySupabase = "supabase"
	PrimarySQL      = "sql"
	PrimaryNone     = "none"
)

// Config selects and tunes the primary store.
type Config struct {
	// Primary is supabase, sql or none.
	Primary string `mapstructure:"primary" default:"supabase"`
	// PrimaryTimeoutSeconds bounds each primary call.
	PrimaryTimeoutSeconds int `mapstructure:"primary_timeout_seconds" default:"10"`
	// IDRetries is how many fresh ids are tried after a collision.
	IDRetries int `mapstructure:"id_retries" default:"5"`
}

// Options converts the tuning fields to Store options.
func (c Config) Options() []Option {
	var opts []Option
	if c.PrimaryTimeoutSeconds > 0 {
		opts = append(opts, WithPrimaryTimeout(time.Duration(c.PrimaryTimeoutSeconds)*time.Second))
	}
	if c.IDRetries > 0 {
		opts = append(opts, WithIDRetries(uint64(c.IDRetries)))
	}
	return opts
}
