package supabase

// Config holds the Supabase project settings.
type Config struct {
	// URL is the project URL, e.g. https://xyz.supabase.co.
	URL string `mapstructure:"url" default:""`
	// ServiceKey is the service-role key; it bypasses row level security.
	ServiceKey string `mapstructure:"service_role_key" default:""`
	// Table is the press pass table exposed by PostgREST.
	Table string `mapstructure:"table" default:"press_passes"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
	// RetryCount is how many times a failed request is retried.
	RetryCount int `mapstructure:"retry_count" default:"1"`
}

// Configured reports whether a project URL and key are present.
func (c Config) Configured() bool {
	return c.URL != "" && c.ServiceKey != ""
}
