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
	Storage  StorageConfig
	Redis    RedisConfig
	Currency CurrencyConfig
	Notify   NotifyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GEARSTORE_APP_ENV" default:"dev"`
	Port         string `envconfig:"GEARSTORE_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"GEARSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GEARSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points at the remote gearstore REST API.
type APIConfig struct {
	BaseURL string        `envconfig:"GEARSTORE_API_BASE_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"GEARSTORE_API_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvAPIBaseURL, a.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", EnvAPIBaseURL)
	}
	return nil
}

type StorageConfig struct {
	Driver      string `envconfig:"GEARSTORE_STORAGE_DRIVER" default:"file"`
	Path        string `envconfig:"GEARSTORE_STORAGE_PATH" default:".gearstore/storage.json"`
	DSN         string `envconfig:"GEARSTORE_STORAGE_DSN" default:"file:.gearstore/storage.db"`
	AutoMigrate bool   `envconfig:"GEARSTORE_STORAGE_AUTO_MIGRATE" default:"true"`
}

// NormalizedDriver returns the lower-cased driver name.
func (s StorageConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

func (s StorageConfig) validate() error {
	switch s.NormalizedDriver() {
	case StorageDriverMemory, StorageDriverRedis:
		return nil
	case StorageDriverFile:
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("%s is required for the file driver", EnvStoragePath)
		}
		return nil
	case StorageDriverSQLite, StorageDriverPostgres:
		if strings.TrimSpace(s.DSN) == "" {
			return fmt.Errorf("%s is required for the %s driver", EnvStorageDSN, s.NormalizedDriver())
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, s.Driver)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"GEARSTORE_REDIS_URL"`
	Address      string        `envconfig:"GEARSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"GEARSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GEARSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GEARSTORE_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"GEARSTORE_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"GEARSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GEARSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GEARSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CurrencyConfig struct {
	Rate   string `envconfig:"GEARSTORE_CURRENCY_RATE" default:"1600"`
	Symbol string `envconfig:"GEARSTORE_CURRENCY_SYMBOL" default:"₦"`
}

type NotifyConfig struct {
	ToastTTL time.Duration `envconfig:"GEARSTORE_TOAST_TTL" default:"3s"`
}
