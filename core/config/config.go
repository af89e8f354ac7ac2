package config

import (
	"fmt"
	"reflect"
	"strings"

	"press-pass/core/database"
	"press-pass/core/logger"
	"press-pass/core/reconcile"
	"press-pass/core/server"
	"press-pass/core/storage"
	"press-pass/core/store"
	"press-pass/core/store/local"
	"press-pass/core/store/supabase"
	"press-pass/feature/passes"
	"press-pass/feature/payment"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application, one section per
// component. Environment variables map as SECTION_KEY, e.g.
// SUPABASE_SERVICE_ROLE_KEY or STRIPE_WEBHOOK_SECRET.
type Config struct {
	Server server.Config `mapstructure:"server"`
	Log    logger.Config `mapstructure:"log"`
	// Store selects the primary driver.
	Store store.Config `mapstructure:"store"`
	// Supabase is the PostgREST primary.
	Supabase supabase.Config `mapstructure:"supabase"`
	// Database is the SQL primary.
	Database database.Config `mapstructure:"database"`
	// Fallback selects where the local collection lives.
	Fallback local.Config `mapstructure:"fallback"`
	// Storage is the bucket used by the object fallback.
	Storage   storage.Config     `mapstructure:"storage"`
	Stripe    payment.Config     `mapstructure:"stripe"`
	Reconcile reconcile.Config   `mapstructure:"reconcile"`
	Stats     passes.StatsConfig `mapstructure:"stats"`
}

// LoadConfig loads configuration from environment variables and the .env
// file in path, if any.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}
	// A missing .env is normal in production.
	_ = godotenv.Overload(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown drivers and malformed schedules. Missing primary
// credentials are not an error; the service then runs on the fallback.
func (c *Config) Validate() error {
	switch c.Store.Primary {
	case store.PrimarySupabase, store.PrimarySQL, store.PrimaryNone:
	default:
		return fmt.Errorf("invalid store.primary %q: want supabase, sql or none", c.Store.Primary)
	}
	switch c.Fallback.Driver {
	case local.DriverFile, local.DriverMemory, local.DriverObject:
	default:
		return fmt.Errorf("invalid fallback.driver %q: want file, memory or object", c.Fallback.Driver)
	}
	if c.Fallback.Driver == local.DriverFile && c.Fallback.Path == "" {
		return fmt.Errorf("fallback.path is required for the file driver")
	}
	if c.Reconcile.Schedule != "" {
		if _, err := cron.ParseStandard(c.Reconcile.Schedule); err != nil {
			return fmt.Errorf("invalid reconcile.schedule: %w", err)
		}
	}
	return nil
}

// PrimaryConfigured reports whether the selected primary has the settings it
// needs to connect.
func (c *Config) PrimaryConfigured() bool {
	switch c.Store.Primary {
	case store.PrimarySupabase:
		return c.Supabase.Configured()
	case store.PrimarySQL:
		return c.Database.Driver == "sqlite" || c.Database.Host != ""
	default:
		return false
	}
}

// bindValues registers every mapstructure key with its default tag so
// AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Set even when empty to register the key for AutomaticEnv.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
