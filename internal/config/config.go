// Package config loads service configuration from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CALMROUTE_CATALOGUE_PATH.
const EnvPrefix = "CALMROUTE"

// Config holds the full application configuration.
type Config struct {
	App       AppConfig       `yaml:"app" mapstructure:"app"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Catalogue CatalogueConfig `yaml:"catalogue" mapstructure:"catalogue"`
	Exposome  ExposomeConfig  `yaml:"exposome" mapstructure:"exposome"`
	Load      LoadConfig      `yaml:"load" mapstructure:"load"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	PubSub    PubSubConfig    `yaml:"pubsub" mapstructure:"pubsub"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AppConfig configures the HTTP host.
type AppConfig struct {
	Port       string `yaml:"port" mapstructure:"port"`
	Env        string `yaml:"env" mapstructure:"env"`
	RequireTLS bool   `yaml:"require_tls" mapstructure:"require_tls"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CatalogueConfig selects where programs are loaded from. URL wins over Path.
type CatalogueConfig struct {
	Path            string        `yaml:"path" mapstructure:"path"`
	URL             string        `yaml:"url" mapstructure:"url"`
	PageSize        int           `yaml:"page_size" mapstructure:"page_size"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	MinPrograms     int           `yaml:"min_programs" mapstructure:"min_programs"`
}

// ExposomeConfig points at optional measured data.
type ExposomeConfig struct {
	StationsPath  string `yaml:"stations_path" mapstructure:"stations_path"`
	ReferencePath string `yaml:"reference_path" mapstructure:"reference_path"`
}

// LoadConfig configures the program load table.
type LoadConfig struct {
	TablePath  string `yaml:"table_path" mapstructure:"table_path"`
	Synthesize bool   `yaml:"synthesize" mapstructure:"synthesize"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRatio    float64       `yaml:"sample_ratio" mapstructure:"sample_ratio"`
	ExportInterval time.Duration `yaml:"export_interval" mapstructure:"export_interval"`
}

// PubSubConfig configures the catalogue refresh subscription.
type PubSubConfig struct {
	ProjectID    string `yaml:"project_id" mapstructure:"project_id"`
	Subscription string `yaml:"subscription" mapstructure:"subscription"`
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	RoutesPerMinute   int `yaml:"routes_per_minute" mapstructure:"routes_per_minute"`
}

// legacyEnv binds keys to the unprefixed variable names used by deployments.
var legacyEnv = map[string]string{
	"app.port":           "APP_PORT",
	"app.env":            "APP_ENV",
	"app.require_tls":    "REQUIRE_TLS",
	"telemetry.enabled":  "OTEL_ENABLED",
	"telemetry.endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
	"pubsub.project_id":  "GOOGLE_CLOUD_PROJECT",
}

// Load reads configuration. path names a YAML file; when empty, config.yaml
// in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	// Defaults. Every key needs one so Unmarshal sees environment overrides.
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.require_tls", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("catalogue.path", "")
	v.SetDefault("catalogue.url", "")
	v.SetDefault("catalogue.page_size", 1000)
	v.SetDefault("catalogue.timeout", 15*time.Second)
	v.SetDefault("catalogue.refresh_interval", 6*time.Hour)
	v.SetDefault("catalogue.min_programs", 1)
	v.SetDefault("exposome.stations_path", "")
	v.SetDefault("exposome.reference_path", "")
	v.SetDefault("load.table_path", "")
	v.SetDefault("load.synthesize", true)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.export_interval", 15*time.Second)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.subscription", "catalogue-refresh")
	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("rate_limit.routes_per_minute", 30)

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Catalogue.PageSize <= 0 {
		return fmt.Errorf("config: catalogue.page_size must be positive")
	}
	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.RoutesPerMinute <= 0 {
		return fmt.Errorf("config: rate limits must be positive")
	}
	return nil
}
