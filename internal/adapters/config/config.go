package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"remora/pkg/errors"
)

type Config struct {
	App           AppConfig
	Remora        RemoraConfig
	Decision      DecisionConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"remora"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// RemoraConfig configures access to the hosted risk-scoring API and the
// freshness policy of the local context cache.
type RemoraConfig struct {
	// APIKey selects the authenticated rate tier and adds the bearer
	// header. Absence is not an error: the anonymous tier applies.
	APIKey  string        `envconfig:"REMORA_API_KEY"`
	BaseURL string        `envconfig:"REMORA_BASE_URL" default:"https://api.remora-ai.com"`
	Timeout time.Duration `envconfig:"REMORA_TIMEOUT" default:"2s"`

	CacheTTL   time.Duration `envconfig:"REMORA_CACHE_TTL" default:"60s"`
	StaleLimit time.Duration `envconfig:"REMORA_STALE_LIMIT" default:"300s"`

	// Strict surfaces classified fetch errors to callers instead of
	// silently serving the fail-open fallback.
	Strict bool `envconfig:"REMORA_STRICT" default:"false"`
}

// DecisionConfig holds the tunable thresholds of the decision engine
type DecisionConfig struct {
	HighBlockThreshold float64 `envconfig:"DECISION_HIGH_BLOCK_THRESHOLD" default:"0.7"`
	MinMultiplier      float64 `envconfig:"DECISION_MIN_MULTIPLIER" default:"0.3"`

	// BlockOnUnsafe gates entries on the upstream safe_to_trade flag
	// independently of the score threshold.
	BlockOnUnsafe bool `envconfig:"DECISION_BLOCK_ON_UNSAFE" default:"true"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled    bool   `envconfig:"METRICS_ENABLED" default:"true"`
	ListenAddr string `envconfig:"METRICS_LISTEN_ADDR" default:":9090"`
}

// WorkerConfig contains settings for background workers
type WorkerConfig struct {
	// RefreshInterval matches the strategy's candle timeframe: one
	// warm-up pass over the watched symbols per tick.
	RefreshInterval time.Duration `envconfig:"WORKER_REFRESH_INTERVAL" default:"5m"`
	RefreshEnabled  bool          `envconfig:"WORKER_REFRESH_ENABLED" default:"true"`
	Symbols         []string      `envconfig:"WORKER_SYMBOLS"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks numeric ranges that would otherwise fail deep inside
// the cache or decision engine
func (c *Config) validate() error {
	if c.Remora.Timeout <= 0 {
		return errors.Newf("REMORA_TIMEOUT must be positive, got %v", c.Remora.Timeout)
	}
	if c.Remora.CacheTTL <= 0 {
		return errors.Newf("REMORA_CACHE_TTL must be positive, got %v", c.Remora.CacheTTL)
	}
	if c.Remora.StaleLimit < c.Remora.CacheTTL {
		return errors.Newf("REMORA_STALE_LIMIT (%v) must not be below REMORA_CACHE_TTL (%v)",
			c.Remora.StaleLimit, c.Remora.CacheTTL)
	}
	if c.Decision.HighBlockThreshold < 0 || c.Decision.HighBlockThreshold > 1 {
		return errors.Newf("DECISION_HIGH_BLOCK_THRESHOLD must be within [0,1], got %v",
			c.Decision.HighBlockThreshold)
	}
	if c.Decision.MinMultiplier < 0 || c.Decision.MinMultiplier > 1 {
		return errors.Newf("DECISION_MIN_MULTIPLIER must be within [0,1], got %v",
			c.Decision.MinMultiplier)
	}
	return nil
}
