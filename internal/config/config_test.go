package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
crawler:
  listing_url: https://gallery.test/shop/
  product_path_prefix: /artworks/
  artist: Jane Smith
  user_agent: gallery-agent
  min_delay_ms: 2000
  max_jitter_ms: 250
  max_items: 40
  respect_robots: false
fetch:
  mode: rendered
  timeout_seconds: 35
  max_body_bytes: 1048576
  ready_selector: "#gallery"
  nav_timeout_seconds: 60
assets:
  dir: /tmp/images
  max_bytes: 2097152
  max_attempts: 5
  base_delay_ms: 100
  max_delay_ms: 900
  timeout_seconds: 12
  skip: true
store:
  archive_path: /tmp/archive.jsonl
  workbook_path: /tmp/catalog.xlsx
  sheet: Paintings
log:
  development: false
  level: warn
debug:
  addr: 127.0.0.1:9180
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Crawler.ListingURL != "https://gallery.test/shop/" {
		t.Fatalf("expected listing URL override, got %q", cfg.Crawler.ListingURL)
	}
	if cfg.Crawler.ProductPathPrefix != "/artworks/" || cfg.Crawler.Artist != "Jane Smith" {
		t.Fatalf("expected crawler overrides to apply: %+v", cfg.Crawler)
	}
	if cfg.Crawler.RespectRobots {
		t.Fatal("expected respect_robots false")
	}
	if cfg.Fetch.Mode != FetchModeRendered || cfg.Fetch.ReadySelector != "#gallery" {
		t.Fatalf("expected fetch overrides to apply: %+v", cfg.Fetch)
	}
	if !cfg.Assets.Skip || cfg.Assets.MaxAttempts != 5 {
		t.Fatalf("expected assets overrides to apply: %+v", cfg.Assets)
	}
	if cfg.Store.Sheet != "Paintings" {
		t.Fatalf("expected sheet override, got %q", cfg.Store.Sheet)
	}
	if cfg.Debug.Addr != "127.0.0.1:9180" {
		t.Fatalf("expected debug addr override, got %q", cfg.Debug.Addr)
	}
	if got := cfg.MinDelay(); got != 2*time.Second {
		t.Fatalf("expected min delay 2s, got %v", got)
	}
	if got := cfg.MaxJitter(); got != 250*time.Millisecond {
		t.Fatalf("expected jitter 250ms, got %v", got)
	}
	if got := cfg.FetchTimeout(); got != 35*time.Second {
		t.Fatalf("expected fetch timeout 35s, got %v", got)
	}
	if got := cfg.NavTimeout(); got != time.Minute {
		t.Fatalf("expected nav timeout 60s, got %v", got)
	}
	if got := cfg.AssetBaseDelay(); got != 100*time.Millisecond {
		t.Fatalf("expected asset base delay 100ms, got %v", got)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	minimal := "crawler:\n  listing_url: https://gallery.test/shop/\n"
	if err := os.WriteFile(path, []byte(minimal), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Crawler.ProductPathPrefix != "/product/" {
		t.Fatalf("expected default product path prefix, got %q", cfg.Crawler.ProductPathPrefix)
	}
	if !cfg.Crawler.RespectRobots {
		t.Fatal("expected robots respected by default")
	}
	if cfg.Fetch.Mode != FetchModeAuto {
		t.Fatalf("expected default fetch mode auto, got %q", cfg.Fetch.Mode)
	}
	if cfg.Store.Sheet != "Artworks" {
		t.Fatalf("expected default sheet Artworks, got %q", cfg.Store.Sheet)
	}
	if cfg.Assets.Dir != "data/images" {
		t.Fatalf("expected default assets dir, got %q", cfg.Assets.Dir)
	}
	if cfg.Debug.Addr != "" {
		t.Fatalf("expected debug listener disabled by default, got %q", cfg.Debug.Addr)
	}
	if got := cfg.AssetTimeout(); got != 30*time.Second {
		t.Fatalf("expected default asset timeout 30s, got %v", got)
	}
	if got := cfg.AssetMaxDelay(); got != 5*time.Second {
		t.Fatalf("expected default asset max delay 5s, got %v", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ARTCRAWL_CRAWLER_LISTING_URL", "https://gallery.test/shop/")
	t.Setenv("ARTCRAWL_FETCH_MODE", "plain")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Crawler.ListingURL != "https://gallery.test/shop/" {
		t.Fatalf("expected env listing URL, got %q", cfg.Crawler.ListingURL)
	}
	if cfg.Fetch.Mode != FetchModePlain {
		t.Fatalf("expected env fetch mode plain, got %q", cfg.Fetch.Mode)
	}
}

func TestLoadPartialSkipsValidation(t *testing.T) {
	cfg, err := LoadPartial("")
	if err != nil {
		t.Fatalf("LoadPartial() error = %v", err)
	}
	if cfg.Crawler.ListingURL != "" {
		t.Fatalf("expected empty listing URL, got %q", cfg.Crawler.ListingURL)
	}
	if cfg.Fetch.Mode != FetchModeAuto {
		t.Fatalf("expected defaults to apply, got %q", cfg.Fetch.Mode)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Crawler: CrawlerConfig{
			ListingURL:        "https://gallery.test/shop/",
			ProductPathPrefix: "/product/",
		},
		Fetch: FetchConfig{
			Mode:           FetchModeAuto,
			TimeoutSeconds: 20,
			MaxBodyBytes:   1024,
		},
		Assets: AssetsConfig{MaxAttempts: 3, MaxBytes: 1024},
		Store:  StoreConfig{ArchivePath: "a.jsonl", WorkbookPath: "c.xlsx"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing listing url",
			cfg: func() Config {
				c := base
				c.Crawler.ListingURL = ""
				return c
			}(),
			want: "crawler.listing_url",
		},
		{
			name: "non-http listing url",
			cfg: func() Config {
				c := base
				c.Crawler.ListingURL = "ftp://gallery.test/shop/"
				return c
			}(),
			want: "crawler.listing_url",
		},
		{
			name: "relative product prefix",
			cfg: func() Config {
				c := base
				c.Crawler.ProductPathPrefix = "product/"
				return c
			}(),
			want: "crawler.product_path_prefix",
		},
		{
			name: "negative delay",
			cfg: func() Config {
				c := base
				c.Crawler.MinDelayMs = -1
				return c
			}(),
			want: "delays",
		},
		{
			name: "negative max items",
			cfg: func() Config {
				c := base
				c.Crawler.MaxItems = -5
				return c
			}(),
			want: "crawler.max_items",
		},
		{
			name: "unknown fetch mode",
			cfg: func() Config {
				c := base
				c.Fetch.Mode = "turbo"
				return c
			}(),
			want: "fetch.mode",
		},
		{
			name: "invalid fetch timeout",
			cfg: func() Config {
				c := base
				c.Fetch.TimeoutSeconds = 0
				return c
			}(),
			want: "fetch.timeout_seconds",
		},
		{
			name: "invalid asset attempts",
			cfg: func() Config {
				c := base
				c.Assets.MaxAttempts = 0
				return c
			}(),
			want: "assets.max_attempts",
		},
		{
			name: "missing store paths",
			cfg: func() Config {
				c := base
				c.Store.ArchivePath = ""
				return c
			}(),
			want: "store paths",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
