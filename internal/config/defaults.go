package config

import "time"

// Default value constants.
const (
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMaxBodySize     = 32 << 20 // uploaded boundary files can be large
	DefaultShutdownTimeout = 20 * time.Second

	DefaultDBPort   = 5432
	DefaultMaxConns = 10

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "plotproof:"

	DefaultSessionTTL = 24 * time.Hour

	DefaultClassifyConcurrency = 8
	DefaultOracleTimeout       = 10 * time.Second

	DefaultOverlayTimeout   = 8 * time.Second
	DefaultMaxExtentDegrees = 60.0

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// It must run after unmarshalling and before Validate so optional-but-
// defaulted fields are never seen as missing.  Fields already set by the
// caller are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Database.Host != "" {
		if cfg.Database.Port == 0 {
			cfg.Database.Port = DefaultDBPort
		}
		if cfg.Database.MaxConns == 0 {
			cfg.Database.MaxConns = DefaultMaxConns
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}

	if cfg.Classify.Concurrency == 0 {
		cfg.Classify.Concurrency = DefaultClassifyConcurrency
	}
	for _, o := range []*OracleEndpoint{
		&cfg.Classify.GFW, &cfg.Classify.JRC, &cfg.Classify.SBTN,
		&cfg.Classify.WDPA, &cfg.Classify.Peatland,
	} {
		if o.Timeout == 0 {
			o.Timeout = DefaultOracleTimeout
		}
	}

	if cfg.Overlay.RequestTimeout == 0 {
		cfg.Overlay.RequestTimeout = DefaultOverlayTimeout
	}
	if cfg.Overlay.MaxExtentDegrees == 0 {
		cfg.Overlay.MaxExtentDegrees = DefaultMaxExtentDegrees
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
