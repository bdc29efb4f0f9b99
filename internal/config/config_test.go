package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ingest-go/internal/config"
	"job-ingest-go/internal/models"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, int64(100_000), cfg.Policy().Thresholds["USD"])
	assert.Equal(t, 50, cfg.SourcePriorities().Of(models.SourceKindATS))
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.Runner.WorkersPerSource)
	assert.Equal(t, 4*time.Second, cfg.Retry.MaxDelay)
	assert.True(t, cfg.Sources["remotive"].Enabled)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: postgres
  dsn: postgres://localhost/ingest?sslmode=disable
salary:
  thresholds:
    USD: 120000
  min_confidence: 60
priorities:
  board: 25
sources:
  greenhouse:
    enabled: true
    boards: [acme, globex]
schedule:
  cron: "0 * * * *"
retry:
  base_delay: 100ms
`), 0o600))

	t.Setenv("INGEST_RUNNER_WORKERS_PER_SOURCE", "3")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, config.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/ingest?sslmode=disable", cfg.Storage.DSN)

	policy := cfg.Policy()
	assert.Equal(t, int64(120_000), policy.Thresholds["USD"])
	assert.Equal(t, int64(80_000), policy.Thresholds["EUR"])
	assert.Equal(t, 60, policy.MinConfidence)

	assert.Equal(t, 25, cfg.SourcePriorities().Of(models.SourceKindBoard))
	assert.Equal(t, 50, cfg.SourcePriorities().Of(models.SourceKindATS))

	gh := cfg.Sources["greenhouse"]
	assert.True(t, gh.Enabled)
	assert.Equal(t, []string{"acme", "globex"}, gh.Boards)
	assert.Equal(t, 120, gh.RateLimit)

	assert.Equal(t, "0 * * * *", cfg.Schedule.Cron)
	assert.Equal(t, 100*time.Millisecond, cfg.HTTPRetry().BaseDelay)
	assert.Equal(t, 3, cfg.IngestConfig().WorkersPerSource)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown driver", func(c *config.Config) { c.Storage.Driver = "mongo" }},
		{"postgres without dsn", func(c *config.Config) { c.Storage.Driver = config.DriverPostgres }},
		{"supabase without key", func(c *config.Config) {
			c.Storage.Driver = config.DriverSupabase
			c.Storage.SupabaseURL = "https://x.supabase.co"
		}},
		{"no workers", func(c *config.Config) { c.Runner.WorkersPerSource = 0 }},
		{"no attempts", func(c *config.Config) { c.Retry.MaxAttempts = 0 }},
		{"inverted delays", func(c *config.Config) { c.Retry.MaxDelay = time.Millisecond }},
		{"unsupported currency", func(c *config.Config) { c.Salary.Thresholds["jpy"] = 9_000_000 }},
		{"unknown kind", func(c *config.Config) { c.Priorities["newsletter"] = 5 }},
		{"no sources", func(c *config.Config) {
			for name, s := range c.Sources {
				s.Enabled = false
				c.Sources[name] = s
			}
		}},
		{"bad cron", func(c *config.Config) { c.Schedule.Cron = "every minute" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
