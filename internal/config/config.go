package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	// Crawler configuration
	Crawler CrawlerConfig `mapstructure:"crawler"`

	// Page extraction configuration
	Extract ExtractConfig `mapstructure:"extract"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig holds fetch-related configuration
type CrawlerConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	MaxWorkers      int           `mapstructure:"max_workers"`
	MaxSitemapDepth int           `mapstructure:"max_sitemap_depth"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
}

// ExtractConfig holds content extraction configuration
type ExtractConfig struct {
	// Fallback is used when a page has no main, article or .content region.
	// One of "none" or "trafilatura".
	Fallback string `mapstructure:"fallback"`
}

// OutputConfig holds document output configuration
type OutputConfig struct {
	Format    string `mapstructure:"format"` // "markdown" or "json"
	Path      string `mapstructure:"path"`
	TreeDepth int    `mapstructure:"tree_depth"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "text", "json" or "logfmt"
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment. An empty configPath
// searches the working directory, ./config and $HOME/.site2md for config.yaml.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.site2md")
	}

	setDefaults(v)
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error, we'll use defaults and env
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration made of defaults only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Crawler defaults
	v.SetDefault("crawler.timeout", "30s")
	v.SetDefault("crawler.user_agent", "site2md/1.0")
	v.SetDefault("crawler.max_workers", 4)
	v.SetDefault("crawler.max_sitemap_depth", 10)
	v.SetDefault("crawler.max_idle_conns", 50)

	// Extraction defaults
	v.SetDefault("extract.fallback", "none")

	// Output defaults
	v.SetDefault("output.format", "markdown")
	v.SetDefault("output.path", "")
	v.SetDefault("output.tree_depth", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output_path", "stderr")
}

// bindEnvVars binds SITE2MD_* environment variables, e.g. SITE2MD_CRAWLER_MAX_WORKERS.
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("SITE2MD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Crawler.Timeout <= 0 {
		return fmt.Errorf("%w: crawler.timeout must be positive", ErrInvalidConfig)
	}
	if c.Crawler.MaxWorkers <= 0 {
		return fmt.Errorf("%w: crawler.max_workers must be positive", ErrInvalidConfig)
	}
	if c.Crawler.MaxSitemapDepth <= 0 {
		return fmt.Errorf("%w: crawler.max_sitemap_depth must be positive", ErrInvalidConfig)
	}
	if c.Output.TreeDepth < 0 {
		return fmt.Errorf("%w: output.tree_depth must not be negative", ErrInvalidConfig)
	}

	switch c.Extract.Fallback {
	case "none", "trafilatura":
	default:
		return fmt.Errorf("%w: unknown extract.fallback %q", ErrInvalidConfig, c.Extract.Fallback)
	}

	switch c.Output.Format {
	case "markdown", "json":
	default:
		return fmt.Errorf("%w: unsupported output.format %q", ErrInvalidConfig, c.Output.Format)
	}

	return nil
}
