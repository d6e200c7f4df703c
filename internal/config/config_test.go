package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("unexpected default port: %s", cfg.Port)
	}
	if cfg.CacheMaxAge != 12*time.Hour {
		t.Fatalf("unexpected default max age: %v", cfg.CacheMaxAge)
	}
	if cfg.CacheReadTimeout != 2*time.Second {
		t.Fatalf("unexpected default cache read timeout: %v", cfg.CacheReadTimeout)
	}
	if cfg.TreemapTopN != 35 {
		t.Fatalf("unexpected default top-n: %d", cfg.TreemapTopN)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_MAX_AGE", "24h")
	t.Setenv("TREEMAP_TOP_N", "15")
	t.Setenv("MARKET_BASE_URL", "http://market:9000")

	cfg := Load()
	if cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("override not applied: %v", cfg.CacheMaxAge)
	}
	if cfg.TreemapTopN != 15 {
		t.Fatalf("override not applied: %d", cfg.TreemapTopN)
	}
	if cfg.MarketBaseURL != "http://market:9000" {
		t.Fatalf("override not applied: %s", cfg.MarketBaseURL)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("CACHE_MAX_AGE", "soon")
	t.Setenv("TREEMAP_TOP_N", "many")

	cfg := Load()
	if cfg.CacheMaxAge != 12*time.Hour {
		t.Fatalf("bad duration should fall back: %v", cfg.CacheMaxAge)
	}
	if cfg.TreemapTopN != 35 {
		t.Fatalf("bad int should fall back: %d", cfg.TreemapTopN)
	}
}
