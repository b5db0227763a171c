package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultRemoteTimeout         = 15 * time.Second
	DefaultProbeInterval         = 10 * time.Second
	DefaultReferenceCacheTTL     = 7 * 24 * time.Hour
	DefaultCatalogTimeout        = 10 * time.Second
	DefaultAITimeout             = 15 * time.Second
	DefaultAIMaxRetries          = 3
	DefaultAIModel               = "claude-3-5-haiku-latest"
	DefaultAIDailyLimit          = 3
	DefaultAIPerMinuteLimit      = 15
	DefaultHotCacheSizeBytes     = 8 * 1024 * 1024
	DefaultLocalStorePath        = "./rerack.db"
	DefaultCatalogBaseURL        = "https://exercisedb-api.vercel.app/api/v1"
	DefaultSessionTTL            = 24 * 7 * time.Hour
	DefaultPrometheusMetricsPort = "2112"
)

type Config struct {
	Host        string
	Port        int
	Environment string `toml:"environment"`
	// nil means the built in origins
	AllowedOrigins []string `toml:"allowed_origins"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// local store
	LocalStorePath string `toml:"local_store_path"`
	// remote store
	RemoteEnabled  bool          `toml:"remote_enabled"`
	PostgresHost   string        `toml:"postgres_host"`
	PostgresPort   string        `toml:"postgres_port"`
	PostgresDBName string        `toml:"postgres_db_name"`
	RemoteTimeout  time.Duration `toml:"remote_timeout"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// sync
	ProbeInterval   time.Duration `toml:"probe_interval"`
	SyncMaxAttempts int           `toml:"sync_max_attempts"`
	SessionTTL      time.Duration `toml:"session_ttl"`
	// reference data
	CatalogBaseURL    string        `toml:"catalog_base_url"`
	CatalogTimeout    time.Duration `toml:"catalog_timeout"`
	ReferenceCacheTTL time.Duration `toml:"reference_cache_ttl"`
	HotCacheSizeBytes int           `toml:"hot_cache_size_bytes"`
	// ai generation
	AIEnabled        bool          `toml:"ai_enabled"`
	AIModel          string        `toml:"ai_model"`
	AIDailyLimit     int           `toml:"ai_daily_limit"`
	AIPerMinuteLimit int           `toml:"ai_per_minute_limit"`
	AITimeout        time.Duration `toml:"ai_timeout"`
	AIMaxRetries     int           `toml:"ai_max_retries"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return t.Get(env)
}

// Default returns a development config usable without a config file:
// local store only, no remote, no redis.
func Default() *Config {
	cfg := &Config{
		Host:        "localhost",
		Port:        9090,
		Environment: "development",
		LogLevel:    "info",
		LogToStdout: true,
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LocalStorePath == "" {
		c.LocalStorePath = DefaultLocalStorePath
	}
	if c.RemoteTimeout <= 0 {
		c.RemoteTimeout = DefaultRemoteTimeout
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = DefaultProbeInterval
	}
	if c.SyncMaxAttempts < 0 {
		c.SyncMaxAttempts = 0
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.CatalogBaseURL == "" {
		c.CatalogBaseURL = DefaultCatalogBaseURL
	}
	if c.CatalogTimeout <= 0 {
		c.CatalogTimeout = DefaultCatalogTimeout
	}
	if c.ReferenceCacheTTL <= 0 {
		c.ReferenceCacheTTL = DefaultReferenceCacheTTL
	}
	if c.HotCacheSizeBytes <= 0 {
		c.HotCacheSizeBytes = DefaultHotCacheSizeBytes
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = DefaultPrometheusMetricsPort
	}
	if c.AIModel == "" {
		c.AIModel = DefaultAIModel
	}
	if c.AIDailyLimit <= 0 {
		c.AIDailyLimit = DefaultAIDailyLimit
	}
	if c.AIPerMinuteLimit <= 0 {
		c.AIPerMinuteLimit = DefaultAIPerMinuteLimit
	}
	if c.AITimeout <= 0 {
		c.AITimeout = DefaultAITimeout
	}
	if c.AIMaxRetries <= 0 {
		c.AIMaxRetries = DefaultAIMaxRetries
	}
}
