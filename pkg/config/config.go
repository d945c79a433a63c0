package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is passed to envconfig; variable names are spelled out in
// full on the struct tags.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Env variable names shared with tests and deploy tooling.
const (
	EnvAppEnv        = "OCEANBITES_APP_ENV"
	EnvPort          = "OCEANBITES_APP_PORT"
	EnvStorageDriver = "OCEANBITES_STORAGE_DRIVER"
	EnvStorageDSN    = "OCEANBITES_STORAGE_DSN"
	EnvRedisURL      = "OCEANBITES_REDIS_URL"
	EnvRemoteAPIBase = "OCEANBITES_REMOTE_API_BASE_URL"
	EnvRemoteStream  = "OCEANBITES_REMOTE_STREAM_URL"
)

// Storage driver values.
const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Cart     CartConfig
	Tracking TrackingConfig
	Remote   RemoteConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OCEANBITES_APP_ENV" required:"true"`
	Port         string `envconfig:"OCEANBITES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OCEANBITES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OCEANBITES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StorageConfig struct {
	Driver string `envconfig:"OCEANBITES_STORAGE_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"OCEANBITES_STORAGE_DSN" default:"file:oceanbites.db"`

	MaxOpenConns    int           `envconfig:"OCEANBITES_STORAGE_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"OCEANBITES_STORAGE_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"OCEANBITES_STORAGE_CONN_MAX_LIFETIME" default:"1h"`
}

func (s StorageConfig) normalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

func (s *StorageConfig) validate(redis RedisConfig) error {
	driver := s.normalizedDriver()
	switch driver {
	case StorageDriverSQLite, StorageDriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("%s is required for driver %q", EnvStorageDSN, driver)
		}
	case StorageDriverRedis:
		if redis.URL == "" && redis.Address == "" {
			return fmt.Errorf("%s is required for driver %q", EnvRedisURL, driver)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", s.Driver)
	}
	s.Driver = driver
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"OCEANBITES_REDIS_URL"`
	Address      string        `envconfig:"OCEANBITES_REDIS_ADDR"`
	Password     string        `envconfig:"OCEANBITES_REDIS_PASSWORD"`
	DB           int           `envconfig:"OCEANBITES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OCEANBITES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OCEANBITES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OCEANBITES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OCEANBITES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OCEANBITES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CartConfig struct {
	Namespace string `envconfig:"OCEANBITES_CART_NAMESPACE" default:"ob"`
}

type TrackingConfig struct {
	TickInterval time.Duration `envconfig:"OCEANBITES_TRACKING_TICK_INTERVAL" default:"750ms"`
}

// RemoteConfig describes the optional order-submission collaborator. An
// empty base URL means demo mode and no remote calls are attempted. The
// stream URL is carried through as order metadata only.
type RemoteConfig struct {
	APIBaseURL string        `envconfig:"OCEANBITES_REMOTE_API_BASE_URL" default:""`
	StreamURL  string        `envconfig:"OCEANBITES_REMOTE_STREAM_URL" default:""`
	Timeout    time.Duration `envconfig:"OCEANBITES_REMOTE_TIMEOUT" default:"3s"`
}

// Configured reports whether a remote order-creation endpoint is set.
func (r RemoteConfig) Configured() bool {
	return strings.TrimSpace(r.APIBaseURL) != ""
}

// StreamConfigured reports whether a streaming endpoint was supplied.
func (r RemoteConfig) StreamConfigured() bool {
	return strings.TrimSpace(r.StreamURL) != ""
}
