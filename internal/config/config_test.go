package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "REDIS_URL", "GEOCODER", "STUB_CONTEXT", "PROVIDER_TIMEOUT", "CORS_ALLOWED_ORIGINS", "WINDY_WIND_SPEED"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Server.Port)
	}
	if cfg.Database.URL != "" || cfg.Redis.URL != "" {
		t.Errorf("expected persistence disabled by default")
	}
	if cfg.Providers.Geocoder != "nominatim" || cfg.Providers.StubContext {
		t.Errorf("providers = %+v", cfg.Providers)
	}
	if cfg.Providers.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Providers.Timeout)
	}
	if cfg.Providers.WindyWindSpeed != 10.8 {
		t.Errorf("WindyWindSpeed = %v", cfg.Providers.WindyWindSpeed)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 1 || cfg.Server.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORS = %v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Redis.Channel != "delivery:predictions" {
		t.Errorf("Channel = %q", cfg.Redis.Channel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STUB_CONTEXT", "true")
	t.Setenv("CONTEXT_CACHE_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://eta.example.com,")
	t.Setenv("GEOCODER", "ORS")
	t.Setenv("ORS_API_KEY", "k")
	t.Setenv("WINDY_WIND_SPEED", "8.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.WindyWindSpeed != 8.5 {
		t.Errorf("WindyWindSpeed = %v", cfg.Providers.WindyWindSpeed)
	}
	if cfg.Server.Port != "8080" || !cfg.Providers.StubContext || cfg.Redis.CacheTTL != 90*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Providers.Geocoder != "ors" {
		t.Errorf("Geocoder = %q", cfg.Providers.Geocoder)
	}
	want := []string{"http://localhost:5173", "https://eta.example.com"}
	if strings.Join(cfg.Server.CORSAllowedOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORS = %v", cfg.Server.CORSAllowedOrigins)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("SINK_QUEUE_SIZE", "lots")
	t.Setenv("PROVIDER_TIMEOUT", "5 seconds")
	t.Setenv("STUB_CONTEXT", "maybe")
	t.Setenv("WINDY_WIND_SPEED", "breezy")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{"SINK_QUEUE_SIZE", "PROVIDER_TIMEOUT", "STUB_CONTEXT", "WINDY_WIND_SPEED"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoadRejectsNonPositiveWindSpeed(t *testing.T) {
	t.Setenv("WINDY_WIND_SPEED", "0")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "WINDY_WIND_SPEED") {
		t.Fatalf("err = %v, want WINDY_WIND_SPEED error", err)
	}
}

func TestLoadRejectsORSWithoutKey(t *testing.T) {
	t.Setenv("GEOCODER", "ors")
	t.Setenv("ORS_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}

	t.Setenv("GEOCODER", "google")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown geocoder")
	}
}

func TestGetters(t *testing.T) {
	t.Setenv("TEST_CONFIG_INT", "42")
	t.Setenv("TEST_CONFIG_FLOAT", "2.5")
	t.Setenv("TEST_CONFIG_BAD", "x")

	if n, err := GetInt("TEST_CONFIG_INT", 1); err != nil || n != 42 {
		t.Errorf("GetInt = %d, %v", n, err)
	}
	if f, err := GetFloat("TEST_CONFIG_FLOAT", 1); err != nil || f != 2.5 {
		t.Errorf("GetFloat = %v, %v", f, err)
	}
	if n, err := GetInt("TEST_CONFIG_BAD", 7); err == nil || n != 7 {
		t.Errorf("GetInt bad = %d, %v", n, err)
	}
	if got := Get("TEST_CONFIG_UNSET_VAR", "default"); got != "default" {
		t.Errorf("Get = %q", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TEST_DOTENV_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TEST_DOTENV_VALUE", "")
	os.Unsetenv("TEST_DOTENV_VALUE")

	if !LoadDotEnv(path) {
		t.Fatalf("expected .env to load")
	}
	if got := os.Getenv("TEST_DOTENV_VALUE"); got != "from-file" {
		t.Fatalf("TEST_DOTENV_VALUE = %q", got)
	}
	if LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")) {
		t.Fatalf("expected missing file to report false")
	}
}
