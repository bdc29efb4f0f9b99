// Package config loads ingest configuration from defaults, an optional YAML
// or JSON file, a .env file and INGEST_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"job-ingest-go/internal/ingest"
	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/models"
	"job-ingest-go/internal/resolver"
	"job-ingest-go/internal/salary"
	"job-ingest-go/internal/sources"
	"job-ingest-go/pkg/httpclient"
)

const envPrefix = "INGEST"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"
)

// Config holds the application configuration
type Config struct {
	Logging    logger.Config                   `mapstructure:"logging"`
	Storage    StorageConfig                   `mapstructure:"storage"`
	Redis      RedisConfig                     `mapstructure:"redis"`
	Runner     RunnerConfig                    `mapstructure:"runner"`
	Retry      RetryConfig                     `mapstructure:"retry"`
	Salary     SalaryConfig                    `mapstructure:"salary"`
	Priorities map[string]int                  `mapstructure:"priorities"`
	Sources    map[string]sources.SourceConfig `mapstructure:"sources"`
	Server     ServerConfig                    `mapstructure:"server"`
	Schedule   ScheduleConfig                  `mapstructure:"schedule"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	SupabaseURL string `mapstructure:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_key"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig enables the cross-process key lock when URL is set.
type RedisConfig struct {
	URL            string        `mapstructure:"url"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	LockRetryDelay time.Duration `mapstructure:"lock_retry_delay"`
	LockMaxRetries int           `mapstructure:"lock_max_retries"`
}

// RunnerConfig holds ingestion concurrency settings
type RunnerConfig struct {
	ConcurrentSources int           `mapstructure:"concurrent_sources"`
	WorkersPerSource  int           `mapstructure:"workers_per_source"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	LockStripes       int           `mapstructure:"lock_stripes"`
}

// RetryConfig holds upstream HTTP settings
type RetryConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
}

// SalaryConfig mirrors salary.Policy. Threshold keys are ISO currency codes
// in any case.
type SalaryConfig struct {
	Thresholds             map[string]int64 `mapstructure:"thresholds"`
	MaxPlausibleMultiple   float64          `mapstructure:"max_plausible_multiple"`
	DescriptionCapMultiple float64          `mapstructure:"description_cap_multiple"`
	VeryHighMultiple       float64          `mapstructure:"very_high_multiple"`
	MinConfidence          int              `mapstructure:"min_confidence"`
	NearThresholdBand      float64          `mapstructure:"near_threshold_band"`
	WideRangeRatio         float64          `mapstructure:"wide_range_ratio"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ScheduleConfig drives the daemon's periodic runs.
type ScheduleConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Cron       string `mapstructure:"cron"`
	Selection  string `mapstructure:"selection"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	policy := salary.DefaultPolicy()
	retry := httpclient.DefaultRetryConfig()
	runner := ingest.DefaultConfig()

	priorities := make(map[string]int)
	for kind, p := range resolver.DefaultPriorities() {
		priorities[string(kind)] = p
	}

	return &Config{
		Logging: logger.Config{
			Level:       logger.DefaultLevel,
			OutputPaths: []string{"stdout"},
		},
		Storage: StorageConfig{
			Driver:      DriverMemory,
			AutoMigrate: true,
		},
		Redis: RedisConfig{
			LockTTL:        resolver.DefaultLockTTL,
			LockRetryDelay: resolver.DefaultLockRetryDelay,
			LockMaxRetries: resolver.DefaultLockMaxRetries,
		},
		Runner: RunnerConfig{
			ConcurrentSources: runner.ConcurrentSources,
			WorkersPerSource:  runner.WorkersPerSource,
			WriteTimeout:      resolver.DefaultWriteTimeout,
			LockStripes:       resolver.DefaultStripes,
		},
		Retry: RetryConfig{
			RequestTimeout: httpclient.DefaultTimeout,
			MaxAttempts:    retry.MaxAttempts,
			BaseDelay:      retry.BaseDelay,
			MaxDelay:       retry.MaxDelay,
		},
		Salary: SalaryConfig{
			Thresholds:             policy.Thresholds,
			MaxPlausibleMultiple:   policy.MaxPlausibleMultiple,
			DescriptionCapMultiple: policy.DescriptionCapMultiple,
			VeryHighMultiple:       policy.VeryHighMultiple,
			MinConfidence:          policy.MinConfidence,
			NearThresholdBand:      policy.NearThresholdBand,
			WideRangeRatio:         policy.WideRangeRatio,
		},
		Priorities: priorities,
		Sources: map[string]sources.SourceConfig{
			"remotive":   {Enabled: true, RateLimit: 100, Categories: []string{"software-dev", "devops", "data"}},
			"remoteok":   {Enabled: true, RateLimit: 60},
			"greenhouse": {Enabled: false, RateLimit: 120},
			"jsonl":      {Enabled: false, RateLimit: 60, Kind: string(models.SourceKindGeneric)},
		},
		Server: ServerConfig{
			Address:      ":8080",
			Mode:         "release",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Schedule: ScheduleConfig{
			Enabled:    true,
			Cron:       "*/15 * * * *",
			Selection:  "all",
			RunOnStart: true,
		},
	}
}

// LoadConfig layers defaults, the config file, .env and environment. An
// empty path searches ./config.yaml and ./config/config.yaml; a path that
// does not exist falls back to defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		} else {
			v.SetConfigFile(path)
		}
	}
	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.output_paths", d.Logging.OutputPaths)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.supabase_url", d.Storage.SupabaseURL)
	v.SetDefault("storage.supabase_key", d.Storage.SupabaseKey)
	v.SetDefault("storage.auto_migrate", d.Storage.AutoMigrate)

	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("redis.lock_ttl", d.Redis.LockTTL)
	v.SetDefault("redis.lock_retry_delay", d.Redis.LockRetryDelay)
	v.SetDefault("redis.lock_max_retries", d.Redis.LockMaxRetries)

	v.SetDefault("runner.concurrent_sources", d.Runner.ConcurrentSources)
	v.SetDefault("runner.workers_per_source", d.Runner.WorkersPerSource)
	v.SetDefault("runner.write_timeout", d.Runner.WriteTimeout)
	v.SetDefault("runner.lock_stripes", d.Runner.LockStripes)

	v.SetDefault("retry.request_timeout", d.Retry.RequestTimeout)
	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.base_delay", d.Retry.BaseDelay)
	v.SetDefault("retry.max_delay", d.Retry.MaxDelay)

	thresholds := make(map[string]any, len(d.Salary.Thresholds))
	for cur, t := range d.Salary.Thresholds {
		thresholds[strings.ToLower(cur)] = t
	}
	v.SetDefault("salary.thresholds", thresholds)
	v.SetDefault("salary.max_plausible_multiple", d.Salary.MaxPlausibleMultiple)
	v.SetDefault("salary.description_cap_multiple", d.Salary.DescriptionCapMultiple)
	v.SetDefault("salary.very_high_multiple", d.Salary.VeryHighMultiple)
	v.SetDefault("salary.min_confidence", d.Salary.MinConfidence)
	v.SetDefault("salary.near_threshold_band", d.Salary.NearThresholdBand)
	v.SetDefault("salary.wide_range_ratio", d.Salary.WideRangeRatio)

	for kind, p := range d.Priorities {
		v.SetDefault("priorities."+kind, p)
	}

	for name, s := range d.Sources {
		prefix := "sources." + name + "."
		v.SetDefault(prefix+"enabled", s.Enabled)
		v.SetDefault(prefix+"rate_limit", s.RateLimit)
		v.SetDefault(prefix+"base_url", s.BaseURL)
		v.SetDefault(prefix+"categories", s.Categories)
		v.SetDefault(prefix+"boards", s.Boards)
		v.SetDefault(prefix+"path", s.Path)
		v.SetDefault(prefix+"kind", s.Kind)
	}

	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)

	v.SetDefault("schedule.enabled", d.Schedule.Enabled)
	v.SetDefault("schedule.cron", d.Schedule.Cron)
	v.SetDefault("schedule.selection", d.Schedule.Selection)
	v.SetDefault("schedule.run_on_start", d.Schedule.RunOnStart)
}

// bindEnv maps the conventional unprefixed variables onto config keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"storage.dsn":          {"INGEST_STORAGE_DSN", "DATABASE_URL"},
		"storage.supabase_url": {"INGEST_STORAGE_SUPABASE_URL", "SUPABASE_URL"},
		"storage.supabase_key": {"INGEST_STORAGE_SUPABASE_KEY", "SUPABASE_KEY"},
		"redis.url":            {"INGEST_REDIS_URL", "REDIS_URL"},
		"logging.level":        {"INGEST_LOGGING_LEVEL", "LOG_LEVEL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	case DriverSupabase:
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			return fmt.Errorf("supabase URL and key are required for the supabase driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Runner.ConcurrentSources <= 0 {
		return fmt.Errorf("concurrent sources must be positive")
	}
	if c.Runner.WorkersPerSource <= 0 {
		return fmt.Errorf("workers per source must be positive")
	}
	if c.Runner.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1")
	}
	if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry delays must satisfy 0 < base_delay <= max_delay")
	}

	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("salary: %w", err)
	}

	for kind, p := range c.Priorities {
		switch models.SourceKind(kind) {
		case models.SourceKindATS, models.SourceKindCareers, models.SourceKindCuratedBoard,
			models.SourceKindBoard, models.SourceKindGeneric:
		default:
			return fmt.Errorf("priorities: unknown source kind %q", kind)
		}
		if p <= 0 {
			return fmt.Errorf("priorities: %s must be positive", kind)
		}
	}

	hasEnabledSource := false
	for _, s := range c.Sources {
		hasEnabledSource = hasEnabledSource || s.Enabled
	}
	if !hasEnabledSource {
		return fmt.Errorf("at least one job source must be enabled")
	}

	if c.Schedule.Enabled {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron %q: %w", c.Schedule.Cron, err)
		}
	}
	return nil
}

// Policy builds the salary policy.
func (c *Config) Policy() salary.Policy {
	thresholds := make(map[string]int64, len(c.Salary.Thresholds))
	for cur, t := range c.Salary.Thresholds {
		thresholds[strings.ToUpper(cur)] = t
	}
	return salary.Policy{
		Thresholds:             thresholds,
		MaxPlausibleMultiple:   c.Salary.MaxPlausibleMultiple,
		DescriptionCapMultiple: c.Salary.DescriptionCapMultiple,
		VeryHighMultiple:       c.Salary.VeryHighMultiple,
		MinConfidence:          c.Salary.MinConfidence,
		NearThresholdBand:      c.Salary.NearThresholdBand,
		WideRangeRatio:         c.Salary.WideRangeRatio,
	}
}

// SourcePriorities merges configured priorities over the defaults.
func (c *Config) SourcePriorities() resolver.Priorities {
	p := resolver.DefaultPriorities()
	for kind, v := range c.Priorities {
		p[models.SourceKind(kind)] = v
	}
	return p
}

func (c *Config) IngestConfig() ingest.Config {
	return ingest.Config{
		ConcurrentSources: c.Runner.ConcurrentSources,
		WorkersPerSource:  c.Runner.WorkersPerSource,
	}
}

func (c *Config) HTTPRetry() httpclient.RetryConfig {
	return httpclient.RetryConfig{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxDelay:    c.Retry.MaxDelay,
	}
}

func (c *Config) LockConfig() resolver.LockConfig {
	return resolver.LockConfig{
		TTL:        c.Redis.LockTTL,
		RetryDelay: c.Redis.LockRetryDelay,
		MaxRetries: c.Redis.LockMaxRetries,
	}
}
