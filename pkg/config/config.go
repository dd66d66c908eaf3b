package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Breaker  BreakerConfig
	Checkout CheckoutConfig
	Verify   VerifyConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	Callback CallbackConfig
	Account  AccountConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Verify.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the commerce backend.
type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"10s"`
}

type BreakerConfig struct {
	MaxFailures uint32        `envconfig:"STOREFRONT_BREAKER_MAX_FAILURES" default:"10"`
	OpenTimeout time.Duration `envconfig:"STOREFRONT_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

type CheckoutConfig struct {
	OriginURL string `envconfig:"STOREFRONT_CHECKOUT_ORIGIN_URL" default:"http://localhost:3000"`
}

// VerifyConfig tunes the post-redirect payment status poll.
type VerifyConfig struct {
	MaxAttempts       int           `envconfig:"STOREFRONT_VERIFY_MAX_ATTEMPTS" default:"5"`
	Interval          time.Duration `envconfig:"STOREFRONT_VERIFY_INTERVAL" default:"2s"`
	OptimisticTimeout bool          `envconfig:"STOREFRONT_VERIFY_OPTIMISTIC_TIMEOUT" default:"true"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"2s"`
}

// Enabled reports whether a Redis URL was supplied.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"STOREFRONT_CATALOG_CACHE_TTL" default:"5m"`
}

type CallbackConfig struct {
	Port string `envconfig:"STOREFRONT_CALLBACK_PORT" default:"3000"`
}

type AccountConfig struct {
	Email    string `envconfig:"STOREFRONT_EMAIL"`
	Password string `envconfig:"STOREFRONT_PASSWORD"`
}

func (a *APIConfig) validate() error {
	raw := strings.TrimSpace(a.BaseURL)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url, got %q", EnvAPIBaseURL, a.BaseURL)
	}
	a.BaseURL = strings.TrimRight(raw, "/")
	return nil
}

func (v VerifyConfig) validate() error {
	if v.MaxAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvVerifyMaxAttempts)
	}
	if v.Interval <= 0 {
		return fmt.Errorf("%s must be positive", EnvVerifyInterval)
	}
	return nil
}
