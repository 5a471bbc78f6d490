// Package config loads pipeline settings from an optional YAML file and
// the environment (ETL_ prefix), with defaults for the Madrid deployment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/enterate/incident-etl/internal/domain"
)

// Config holds all pipeline settings.
type Config struct {
	RawDir     string
	CuratedDir string
	CachePath  string

	HTTPAddr  string
	LogLevel  string
	LogFormat string

	City     string
	Country  string
	Timezone string
	Box      domain.BoundingBox

	GeocodeEnabled   bool
	GeocodeBaseURL   string
	GeocodeUserAgent string
	GeocodeTimeout   time.Duration
	GeocodeInterval  time.Duration
}

// Load reads configuration, applying defaults where unset. configFile may
// be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("raw_dir", "etl/data_raw")
	v.SetDefault("curated_dir", "etl/data_curated")
	v.SetDefault("cache_path", "etl/.cache/geocode.sqlite")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("city", "Madrid")
	v.SetDefault("country", "Spain")
	v.SetDefault("timezone", "Europe/Madrid")
	v.SetDefault("bbox.min_lat", 40.2)
	v.SetDefault("bbox.max_lat", 40.6)
	v.SetDefault("bbox.min_lon", -3.9)
	v.SetDefault("bbox.max_lon", -3.4)
	v.SetDefault("geocode.enabled", true)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "incident-etl/1.0")
	v.SetDefault("geocode.timeout", "20s")
	v.SetDefault("geocode.interval", "1s")

	v.SetEnvPrefix("ETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		RawDir:     v.GetString("raw_dir"),
		CuratedDir: v.GetString("curated_dir"),
		CachePath:  v.GetString("cache_path"),
		HTTPAddr:   v.GetString("http_addr"),
		LogLevel:   v.GetString("log_level"),
		LogFormat:  v.GetString("log_format"),
		City:       v.GetString("city"),
		Country:    v.GetString("country"),
		Timezone:   v.GetString("timezone"),
		Box: domain.BoundingBox{
			MinLat: v.GetFloat64("bbox.min_lat"),
			MaxLat: v.GetFloat64("bbox.max_lat"),
			MinLon: v.GetFloat64("bbox.min_lon"),
			MaxLon: v.GetFloat64("bbox.max_lon"),
		},
		GeocodeEnabled:   v.GetBool("geocode.enabled"),
		GeocodeBaseURL:   v.GetString("geocode.base_url"),
		GeocodeUserAgent: v.GetString("geocode.user_agent"),
		GeocodeTimeout:   v.GetDuration("geocode.timeout"),
		GeocodeInterval:  v.GetDuration("geocode.interval"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RawDir == "" {
		return errors.New("raw_dir is required")
	}
	if c.CuratedDir == "" {
		return errors.New("curated_dir is required")
	}
	if c.City == "" {
		return errors.New("city is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Box.MinLat >= c.Box.MaxLat || c.Box.MinLon >= c.Box.MaxLon {
		return errors.New("invalid bounding box")
	}
	if c.GeocodeEnabled {
		if c.GeocodeBaseURL == "" {
			return errors.New("geocode.base_url is required when geocoding is enabled")
		}
		if c.GeocodeTimeout <= 0 {
			return errors.New("invalid geocode.timeout")
		}
		if c.GeocodeInterval <= 0 {
			return errors.New("invalid geocode.interval")
		}
	}
	return nil
}

// Location resolves the configured source timezone. Call after Load; the
// name was validated there.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
