// Package config loads and validates crawl configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Fetch modes accepted by fetch.mode.
const (
	FetchModePlain    = "plain"
	FetchModeRendered = "rendered"
	FetchModeAuto     = "auto"
)

// Config captures all crawl configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Assets  AssetsConfig  `mapstructure:"assets"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// CrawlerConfig governs the listing walk and per-item pipeline.
type CrawlerConfig struct {
	ListingURL        string `mapstructure:"listing_url"`
	ProductPathPrefix string `mapstructure:"product_path_prefix"`
	Artist            string `mapstructure:"artist"`
	UserAgent         string `mapstructure:"user_agent"`
	MinDelayMs        int    `mapstructure:"min_delay_ms"`
	MaxJitterMs       int    `mapstructure:"max_jitter_ms"`
	MaxItems          int    `mapstructure:"max_items"`
	RespectRobots     bool   `mapstructure:"respect_robots"`
}

// FetchConfig configures the page fetchers.
type FetchConfig struct {
	Mode           string `mapstructure:"mode"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int64  `mapstructure:"max_body_bytes"`
	ReadySelector  string `mapstructure:"ready_selector"`
	NavTimeoutSec  int    `mapstructure:"nav_timeout_seconds"`
}

// AssetsConfig configures image downloads.
type AssetsConfig struct {
	Dir            string `mapstructure:"dir"`
	MaxBytes       int64  `mapstructure:"max_bytes"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	BaseDelayMs    int    `mapstructure:"base_delay_ms"`
	MaxDelayMs     int    `mapstructure:"max_delay_ms"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Skip           bool   `mapstructure:"skip"`
}

// StoreConfig sets the archive and workbook paths.
type StoreConfig struct {
	ArchivePath  string `mapstructure:"archive_path"`
	WorkbookPath string `mapstructure:"workbook_path"`
	Sheet        string `mapstructure:"sheet"`
}

// LogConfig toggles zap development features.
type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// DebugConfig controls the optional debug HTTP listener. An empty address
// disables it.
type DebugConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	cfg, err := load(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadPartial builds a Config like Load but skips validation, for commands
// that only need a subset of the keys. Callers are expected to validate
// once they have filled in what they need.
func LoadPartial(path string) (Config, error) {
	return load(path)
}

func load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARTCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.artcrawl")
		v.AddConfigPath("/etc/artcrawl/")
		if err := v.ReadInConfig(); err != nil {
			// Defaults plus environment are a complete configuration;
			// only a malformed file is fatal.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Empty defaults keep env-only keys visible to Unmarshal.
	v.SetDefault("crawler.listing_url", "")
	v.SetDefault("crawler.artist", "")
	v.SetDefault("crawler.product_path_prefix", "/product/")
	v.SetDefault("crawler.user_agent", "artcrawl/0.1")
	v.SetDefault("crawler.min_delay_ms", 1200)
	v.SetDefault("crawler.max_jitter_ms", 600)
	v.SetDefault("crawler.max_items", 0)
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("fetch.mode", FetchModeAuto)
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("fetch.max_body_bytes", 5*1024*1024)
	v.SetDefault("fetch.ready_selector", "section[data-testid='product-grid']")
	v.SetDefault("fetch.nav_timeout_seconds", 45)
	v.SetDefault("assets.dir", "data/images")
	v.SetDefault("assets.max_bytes", 10*1024*1024)
	v.SetDefault("assets.max_attempts", 3)
	v.SetDefault("assets.base_delay_ms", 500)
	v.SetDefault("assets.max_delay_ms", 5000)
	v.SetDefault("assets.timeout_seconds", 30)
	v.SetDefault("assets.skip", false)
	v.SetDefault("store.archive_path", "data/archive.jsonl")
	v.SetDefault("store.workbook_path", "data/catalog.xlsx")
	v.SetDefault("store.sheet", "Artworks")
	v.SetDefault("log.development", true)
	v.SetDefault("log.level", "")
	v.SetDefault("debug.addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.ListingURL == "" {
		return fmt.Errorf("crawler.listing_url must be set")
	}
	if u, err := url.Parse(c.Crawler.ListingURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("crawler.listing_url must be an http(s) URL")
	}
	if !strings.HasPrefix(c.Crawler.ProductPathPrefix, "/") {
		return fmt.Errorf("crawler.product_path_prefix must start with /")
	}
	if c.Crawler.MinDelayMs < 0 || c.Crawler.MaxJitterMs < 0 {
		return fmt.Errorf("crawler delays must be >= 0")
	}
	if c.Crawler.MaxItems < 0 {
		return fmt.Errorf("crawler.max_items must be >= 0")
	}
	switch c.Fetch.Mode {
	case FetchModePlain, FetchModeRendered, FetchModeAuto:
	default:
		return fmt.Errorf("fetch.mode must be plain, rendered, or auto")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0")
	}
	if c.Assets.MaxAttempts <= 0 {
		return fmt.Errorf("assets.max_attempts must be > 0")
	}
	if c.Assets.MaxBytes <= 0 {
		return fmt.Errorf("assets.max_bytes must be > 0")
	}
	if c.Store.ArchivePath == "" || c.Store.WorkbookPath == "" {
		return fmt.Errorf("store paths must be set")
	}
	return nil
}

// MinDelay converts the politeness floor into a duration.
func (c Config) MinDelay() time.Duration {
	return time.Duration(c.Crawler.MinDelayMs) * time.Millisecond
}

// MaxJitter converts the jitter window into a duration.
func (c Config) MaxJitter() time.Duration {
	return time.Duration(c.Crawler.MaxJitterMs) * time.Millisecond
}

// FetchTimeout converts the plain fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// NavTimeout converts the rendering navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Fetch.NavTimeoutSec) * time.Second
}

// AssetTimeout converts the per-download timeout into a duration.
func (c Config) AssetTimeout() time.Duration {
	return time.Duration(c.Assets.TimeoutSeconds) * time.Second
}

// AssetBaseDelay converts the retry base delay into a duration.
func (c Config) AssetBaseDelay() time.Duration {
	return time.Duration(c.Assets.BaseDelayMs) * time.Millisecond
}

// AssetMaxDelay converts the retry delay ceiling into a duration.
func (c Config) AssetMaxDelay() time.Duration {
	return time.Duration(c.Assets.MaxDelayMs) * time.Millisecond
}
