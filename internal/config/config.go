package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fairwaylabs/clubtrack/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Fetcher FetcherConfig `yaml:"fetcher" mapstructure:"fetcher"`
	Crawl   CrawlConfig   `yaml:"crawl" mapstructure:"crawl"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Seed    SeedConfig    `yaml:"seed" mapstructure:"seed"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend. For the sqlite driver,
// DatabaseURL is the database file path.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// FetcherConfig configures the shared HTTP fetcher: the rolling request
// budget, retry bounds, and politeness delay.
type FetcherConfig struct {
	RequestsPerWindow int `yaml:"requests_per_window" mapstructure:"requests_per_window"`
	WindowSecs        int `yaml:"window_secs" mapstructure:"window_secs"`
	RequestDelaySecs  int `yaml:"request_delay_secs" mapstructure:"request_delay_secs"`
	MaxAttempts       int `yaml:"max_attempts" mapstructure:"max_attempts"`
	TimeoutSecs       int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CrawlConfig configures category crawls.
type CrawlConfig struct {
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`
}

// RefreshConfig configures the staleness-driven price refresh.
type RefreshConfig struct {
	IntervalHours int `yaml:"interval_hours" mapstructure:"interval_hours"`
	MaxBatch      int `yaml:"max_batch" mapstructure:"max_batch"`
	Concurrency   int `yaml:"concurrency" mapstructure:"concurrency"`
}

// CatalogConfig gates automatic creation of catalog vocabulary.
type CatalogConfig struct {
	CreateUnknownBrands bool `yaml:"create_unknown_brands" mapstructure:"create_unknown_brands"`
	CreateUnknownTypes  bool `yaml:"create_unknown_types" mapstructure:"create_unknown_types"`
}

// SourcesConfig holds per-retailer settings.
type SourcesConfig struct {
	GlobalGolf GlobalGolfConfig `yaml:"globalgolf" mapstructure:"globalgolf"`
}

// GlobalGolfConfig configures the globalgolf.com adapter. An empty
// BaseURL targets the production site.
type GlobalGolfConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SeedConfig configures historical catalog seeding.
type SeedConfig struct {
	File     string `yaml:"file" mapstructure:"file"`
	MaxYears int    `yaml:"max_years" mapstructure:"max_years"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the configuration for the given run mode: "pipeline"
// for the crawl, refresh, and seed commands, "serve" for the webhook
// server. It reports every problem it finds, not just the first.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Fetcher.RequestsPerWindow < 1 || c.Fetcher.RequestsPerWindow > 600 {
		problems = append(problems, "fetcher.requests_per_window must be between 1 and 600")
	}
	if c.Fetcher.MaxAttempts < 1 || c.Fetcher.MaxAttempts > 10 {
		problems = append(problems, "fetcher.max_attempts must be between 1 and 10")
	}
	if c.Crawl.MaxPages < 1 || c.Crawl.MaxPages > 100 {
		problems = append(problems, "crawl.max_pages must be between 1 and 100")
	}
	if c.Refresh.Concurrency < 1 || c.Refresh.Concurrency > 16 {
		problems = append(problems, "refresh.concurrency must be between 1 and 16")
	}

	switch mode {
	case "pipeline":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLUBTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "clubtrack.db")
	v.SetDefault("fetcher.requests_per_window", 30)
	v.SetDefault("fetcher.window_secs", 60)
	v.SetDefault("fetcher.request_delay_secs", 2)
	v.SetDefault("fetcher.max_attempts", 3)
	v.SetDefault("fetcher.timeout_secs", 30)
	v.SetDefault("crawl.max_pages", 10)
	v.SetDefault("refresh.interval_hours", 24)
	v.SetDefault("refresh.max_batch", 100)
	v.SetDefault("refresh.concurrency", 1)
	v.SetDefault("catalog.create_unknown_brands", true)
	v.SetDefault("catalog.create_unknown_types", true)
	v.SetDefault("seed.file", "seeds/clubs.yaml")
	v.SetDefault("seed.max_years", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
