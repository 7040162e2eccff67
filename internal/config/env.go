package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MAPGRID"

// envOverrides lists the settings that can be overridden from the environment.
// Fields are seeded from the loaded config, so unset variables keep those values.
type envOverrides struct {
	BaseURL         string        `envconfig:"BASE_URL"`
	Timeout         time.Duration `envconfig:"TIMEOUT"`
	UserAgent       string        `envconfig:"USER_AGENT"`
	MaxFeaturePages int           `envconfig:"MAX_FEATURE_PAGES"`
	CacheEnabled    bool          `envconfig:"CACHE_ENABLED"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL"`
	CacheSize       int           `envconfig:"CACHE_SIZE"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	LogFormat       string        `envconfig:"LOG_FORMAT"`
	LogFile         string        `envconfig:"LOG_FILE"`
	StateDir        string        `envconfig:"STATE_DIR"`
}

// ApplyEnv overrides cfg with MAPGRID_* environment variables.
func ApplyEnv(cfg *Config) error {
	o := envOverrides{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		UserAgent:       cfg.API.UserAgent,
		MaxFeaturePages: cfg.API.MaxFeaturePages,
		CacheEnabled:    cfg.Cache.Enabled,
		CacheTTL:        cfg.Cache.TTL,
		CacheSize:       cfg.Cache.Size,
		LogLevel:        cfg.Logging.Level,
		LogFormat:       cfg.Logging.Format,
		LogFile:         cfg.Logging.File,
		StateDir:        cfg.State.Dir,
	}

	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("%w: environment: %w", ErrInvalid, err)
	}

	cfg.API.BaseURL = o.BaseURL
	cfg.API.Timeout = o.Timeout
	cfg.API.UserAgent = o.UserAgent
	cfg.API.MaxFeaturePages = o.MaxFeaturePages
	cfg.Cache.Enabled = o.CacheEnabled
	cfg.Cache.TTL = o.CacheTTL
	cfg.Cache.Size = o.CacheSize
	cfg.Logging.Level = o.LogLevel
	cfg.Logging.Format = o.LogFormat
	cfg.Logging.File = o.LogFile
	cfg.State.Dir = o.StateDir
	return nil
}
