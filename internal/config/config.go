package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the daemon
type Config struct {
	Observer     ObserverConfig
	Margin       float64 // Degrees
	PollInterval time.Duration
	SolarModel   string
	Feed         FeedConfig
	Notify       NotifyConfig
	Registry     RegistryConfig
	Log          LogConfig
}

// ObserverConfig is the fixed ground position transits are computed for
type ObserverConfig struct {
	Latitude  float64
	Longitude float64
	Elevation float64 // Metres above sea level
}

// FeedConfig selects and tunes the aircraft feed
type FeedConfig struct {
	Source     string // adsbx or dump1090
	BaseURL    string
	Host       string
	APIKey     string
	RadiusKm   float64
	RateLimit  float64 // Requests per second
	MaxRetries int
	Timeout    time.Duration
}

// NotifyConfig holds notification settings
type NotifyConfig struct {
	Method   string // email or log
	SMTPHost string
	SMTPPort int
	From     string
	Password string
	To       string
}

// RegistryConfig holds the optional aircraft registry settings. An empty
// DBPath disables the registry.
type RegistryConfig struct {
	DBPath    string
	CSVPaths  []string
	BatchSize int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("observer.latitude", -43.154289)
	v.SetDefault("observer.longitude", 172.738596)
	v.SetDefault("observer.elevation", 41)
	v.SetDefault("poll_interval", "15s")
	v.SetDefault("solar.model", "suncalc")
	v.SetDefault("feed.source", "adsbx")
	v.SetDefault("feed.base_url", "")
	v.SetDefault("feed.host", "")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.radius_km", 100)
	v.SetDefault("feed.rate_limit", 1)
	v.SetDefault("feed.max_retries", 2)
	v.SetDefault("feed.timeout", "10s")
	v.SetDefault("notify.method", "email")
	v.SetDefault("notify.smtp_host", "smtp.gmail.com")
	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.from", "")
	v.SetDefault("notify.password", "")
	v.SetDefault("notify.to", "")
	v.SetDefault("registry.db_path", "")
	v.SetDefault("registry.csv_paths", []string{})
	v.SetDefault("registry.batch_size", 5000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Set config file name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Set config file search paths
	v.AddConfigPath("/etc/sun_transit")
	v.AddConfigPath(".")

	// Check for config file path from environment variable
	if configPath := os.Getenv("SUN_TRANSIT_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Read config file (if it exists)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults + env vars
	}

	// Set environment variable prefix
	v.SetEnvPrefix("SUN_TRANSIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by existing deployments
	legacy := map[string]string{
		"feed.api_key":    "ADSB_API_KEY",
		"notify.from":     "EMAIL_FROM",
		"notify.password": "EMAIL_PASS",
		"notify.to":       "EMAIL_TO",
	}
	for key, env := range legacy {
		prefixed := "SUN_TRANSIT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if !v.IsSet("detection.margin") {
		return nil, fmt.Errorf("invalid configuration: detection.margin is required")
	}

	// Build config struct
	cfg := &Config{
		Observer: ObserverConfig{
			Latitude:  v.GetFloat64("observer.latitude"),
			Longitude: v.GetFloat64("observer.longitude"),
			Elevation: v.GetFloat64("observer.elevation"),
		},
		Margin:       v.GetFloat64("detection.margin"),
		PollInterval: v.GetDuration("poll_interval"),
		SolarModel:   strings.ToLower(v.GetString("solar.model")),
		Feed: FeedConfig{
			Source:     strings.ToLower(v.GetString("feed.source")),
			BaseURL:    v.GetString("feed.base_url"),
			Host:       v.GetString("feed.host"),
			APIKey:     v.GetString("feed.api_key"),
			RadiusKm:   v.GetFloat64("feed.radius_km"),
			RateLimit:  v.GetFloat64("feed.rate_limit"),
			MaxRetries: v.GetInt("feed.max_retries"),
			Timeout:    v.GetDuration("feed.timeout"),
		},
		Notify: NotifyConfig{
			Method:   strings.ToLower(v.GetString("notify.method")),
			SMTPHost: v.GetString("notify.smtp_host"),
			SMTPPort: v.GetInt("notify.smtp_port"),
			From:     v.GetString("notify.from"),
			Password: v.GetString("notify.password"),
			To:       v.GetString("notify.to"),
		},
		Registry: RegistryConfig{
			DBPath:    v.GetString("registry.db_path"),
			CSVPaths:  v.GetStringSlice("registry.csv_paths"),
			BatchSize: v.GetInt("registry.batch_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.Observer.Latitude < -90 || cfg.Observer.Latitude > 90 {
		return fmt.Errorf("observer.latitude must be between -90 and 90")
	}

	if cfg.Observer.Longitude < -180 || cfg.Observer.Longitude > 180 {
		return fmt.Errorf("observer.longitude must be between -180 and 180")
	}

	if cfg.Margin <= 0 || cfg.Margin > 180 {
		return fmt.Errorf("detection.margin must be greater than 0 and at most 180")
	}

	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be greater than 0")
	}

	switch cfg.SolarModel {
	case "suncalc", "noaa":
	default:
		return fmt.Errorf("invalid solar model: %s (must be suncalc or noaa)", cfg.SolarModel)
	}

	switch cfg.Feed.Source {
	case "adsbx":
		if cfg.Feed.APIKey == "" {
			return fmt.Errorf("feed.api_key is required for the adsbx feed")
		}
	case "dump1090":
	default:
		return fmt.Errorf("invalid feed source: %s (must be adsbx or dump1090)", cfg.Feed.Source)
	}

	if cfg.Feed.RadiusKm <= 0 {
		return fmt.Errorf("feed.radius_km must be greater than 0")
	}

	if cfg.Feed.MaxRetries < 0 {
		return fmt.Errorf("feed.max_retries must not be negative")
	}

	switch cfg.Notify.Method {
	case "email":
		if cfg.Notify.From == "" || cfg.Notify.To == "" {
			return fmt.Errorf("notify.from and notify.to are required for email notifications")
		}
		if cfg.Notify.SMTPHost == "" {
			return fmt.Errorf("notify.smtp_host is required for email notifications")
		}
	case "log":
	default:
		return fmt.Errorf("invalid notify method: %s (must be email or log)", cfg.Notify.Method)
	}

	if cfg.Registry.DBPath != "" && cfg.Registry.BatchSize <= 0 {
		return fmt.Errorf("registry.batch_size must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
