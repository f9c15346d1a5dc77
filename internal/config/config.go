// Package config defines all configuration structures for the plotproof
// service.  No I/O or parsing logic lives here, only plain data types and
// validation; loading is in loader.go.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the plot
// association store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection parameters for the analysis session
// store.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// SessionConfig holds analysis-session lifecycle parameters.
type SessionConfig struct {
	// TTL bounds how long a classified result set survives without being
	// re-saved.  Zero means no expiry.
	TTL time.Duration `mapstructure:"ttl"`
}

// OracleEndpoint holds connection parameters for one external
// forest-monitoring dataset.
type OracleEndpoint struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ClassifyConfig holds risk-classification parameters.
type ClassifyConfig struct {
	// Concurrency caps how many plots are classified in parallel.
	Concurrency int `mapstructure:"concurrency"`

	GFW      OracleEndpoint `mapstructure:"gfw"`
	JRC      OracleEndpoint `mapstructure:"jrc"`
	SBTN     OracleEndpoint `mapstructure:"sbtn"`
	WDPA     OracleEndpoint `mapstructure:"wdpa"`
	Peatland OracleEndpoint `mapstructure:"peatland"`
}

// OverlayConfig holds map-overlay loading parameters.
type OverlayConfig struct {
	// PrimaryBaseURL and SecondaryBaseURL are the vector and coarse tile
	// services tried before the bundled static datasets.
	PrimaryBaseURL   string        `mapstructure:"primary_base_url"`
	SecondaryBaseURL string        `mapstructure:"secondary_base_url"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`

	// MaxExtentDegrees is the largest plausible viewport span; larger
	// queries are replaced by each layer's default extent.
	MaxExtentDegrees float64 `mapstructure:"max_extent_degrees"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// Config is the root configuration structure for the whole service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Overlay  OverlayConfig  `mapstructure:"overlay"`
	Log      LogConfig      `mapstructure:"log"`
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("config: %s %d is out of range [1, 65535]", name, port)
	}
	return nil
}

// validateOracle checks one endpoint.  A missing base_url is legal: the
// dataset then degrades to UNKNOWN for every plot instead of blocking
// startup.
func validateOracle(name string, o OracleEndpoint) error {
	if o.Timeout <= 0 {
		return fmt.Errorf("config: classify.%s.timeout must be positive", name)
	}
	return nil
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if err := validatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host != "" {
		if err := validatePort("database.port", c.Database.Port); err != nil {
			return err
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required when database.host is set")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required when database.host is set")
		}
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	if c.Classify.Concurrency < 1 {
		return fmt.Errorf("config: classify.concurrency must be >= 1, got %d", c.Classify.Concurrency)
	}
	oracles := map[string]OracleEndpoint{
		"gfw":      c.Classify.GFW,
		"jrc":      c.Classify.JRC,
		"sbtn":     c.Classify.SBTN,
		"wdpa":     c.Classify.WDPA,
		"peatland": c.Classify.Peatland,
	}
	for name, o := range oracles {
		if err := validateOracle(name, o); err != nil {
			return err
		}
	}

	if c.Overlay.MaxExtentDegrees <= 0 {
		return fmt.Errorf("config: overlay.max_extent_degrees must be positive, got %g", c.Overlay.MaxExtentDegrees)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
