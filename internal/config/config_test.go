package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "clubtrack.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 30, cfg.Fetcher.RequestsPerWindow)
	assert.Equal(t, 60, cfg.Fetcher.WindowSecs)
	assert.Equal(t, 2, cfg.Fetcher.RequestDelaySecs)
	assert.Equal(t, 3, cfg.Fetcher.MaxAttempts)
	assert.Equal(t, 30, cfg.Fetcher.TimeoutSecs)
	assert.Equal(t, 10, cfg.Crawl.MaxPages)
	assert.Equal(t, 24, cfg.Refresh.IntervalHours)
	assert.Equal(t, 100, cfg.Refresh.MaxBatch)
	assert.Equal(t, 1, cfg.Refresh.Concurrency)
	assert.True(t, cfg.Catalog.CreateUnknownBrands)
	assert.True(t, cfg.Catalog.CreateUnknownTypes)
	assert.Equal(t, "seeds/clubs.yaml", cfg.Seed.File)
	assert.Equal(t, 10, cfg.Seed.MaxYears)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Sources.GlobalGolf.BaseURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/clubtrack
fetcher:
  requests_per_window: 10
crawl:
  max_pages: 5
catalog:
  create_unknown_types: false
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/clubtrack", cfg.Store.DatabaseURL)
	assert.Equal(t, 10, cfg.Fetcher.RequestsPerWindow)
	assert.Equal(t, 5, cfg.Crawl.MaxPages)
	assert.False(t, cfg.Catalog.CreateUnknownTypes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 60, cfg.Fetcher.WindowSecs)
	assert.Equal(t, 24, cfg.Refresh.IntervalHours)
	assert.True(t, cfg.Catalog.CreateUnknownBrands)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CLUBTRACK_STORE_DRIVER", "postgres")
	t.Setenv("CLUBTRACK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CLUBTRACK_SERVER_PORT", "3000")
	t.Setenv("CLUBTRACK_REFRESH_MAX_BATCH", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Refresh.MaxBatch)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "clubtrack.db"
	cfg.Fetcher.RequestsPerWindow = 30
	cfg.Fetcher.MaxAttempts = 3
	cfg.Crawl.MaxPages = 10
	cfg.Refresh.Concurrency = 1
	cfg.Server.Port = 8080
	return cfg
}

func TestValidatePipeline_AllPresent(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("pipeline"))
}

func TestValidatePipeline_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateFetcherBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Fetcher.RequestsPerWindow = 0
	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requests_per_window must be between 1 and 600")

	cfg.Fetcher.RequestsPerWindow = 601
	err = cfg.Validate("pipeline")
	assert.Error(t, err)

	cfg.Fetcher.RequestsPerWindow = 600
	err = cfg.Validate("pipeline")
	assert.NoError(t, err)

	cfg.Fetcher.MaxAttempts = 11
	err = cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_attempts must be between 1 and 10")
}

func TestValidateCrawlAndRefreshBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Crawl.MaxPages = 0
	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "crawl.max_pages must be between 1 and 100")

	cfg.Crawl.MaxPages = 10
	cfg.Refresh.Concurrency = 17
	err = cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "refresh.concurrency must be between 1 and 16")

	cfg.Refresh.Concurrency = 16
	assert.NoError(t, cfg.Validate("pipeline"))
}
