package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "livo"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Scanner   ScannerConfig
	Journal   JournalConfig
	Redis     RedisConfig
	Directory DirectoryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LIVO_APP_ENV" default:"dev"`
	Port         string `envconfig:"LIVO_APP_PORT" default:"8050"`
	LogLevel     string `envconfig:"LIVO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LIVO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points the station at the order service deployment.
type BackendConfig struct {
	BaseURL string        `envconfig:"LIVO_BACKEND_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"LIVO_BACKEND_TIMEOUT" default:"15s"`
}

func (b BackendConfig) validate() error {
	if strings.TrimSpace(b.BaseURL) == "" {
		return fmt.Errorf("backend base url is required")
	}
	return nil
}

// ScannerConfig tunes the keyboard-wedge aggregation behavior.
type ScannerConfig struct {
	// QuietPeriod is the gap after the last raw delta before the buffer
	// is treated as one complete scan.
	QuietPeriod time.Duration `envconfig:"LIVO_SCANNER_QUIET_PERIOD" default:"80ms"`
}

// JournalConfig controls the embedded shift-audit database.
type JournalConfig struct {
	Path     string `envconfig:"LIVO_JOURNAL_PATH" default:"livo-station.db"`
	Disabled bool   `envconfig:"LIVO_JOURNAL_DISABLED" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LIVO_REDIS_URL"`
	Address      string        `envconfig:"LIVO_REDIS_ADDR"`
	Password     string        `envconfig:"LIVO_REDIS_PASSWORD"`
	DB           int           `envconfig:"LIVO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LIVO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LIVO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LIVO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LIVO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LIVO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a cache endpoint was configured at all; the
// directory falls back to uncached fetches otherwise.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// DirectoryConfig tunes user-directory resolution for assignment.
type DirectoryConfig struct {
	PageSize   int           `envconfig:"LIVO_DIRECTORY_PAGE_SIZE" default:"50"`
	CacheTTL   time.Duration `envconfig:"LIVO_DIRECTORY_CACHE_TTL" default:"5m"`
	PickerRole string        `envconfig:"LIVO_DIRECTORY_PICKER_ROLE" default:"picker"`
}
