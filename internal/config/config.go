// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Artifacts ArtifactsConfig
	Providers ProvidersConfig
	Sink      SinkConfig
	LogLevel  string
}

type ServerConfig struct {
	Port               string
	MetricsAddr        string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	// Empty disables Postgres persistence and the geocode cache.
	URL string
}

type RedisConfig struct {
	// Empty disables context caching and prediction events.
	URL      string
	CacheTTL time.Duration
	Channel  string
}

type ArtifactsConfig struct {
	Dir string
}

type ProvidersConfig struct {
	// "nominatim" or "ors".
	Geocoder          string
	NominatimBaseURL  string
	UserAgent         string
	ORSAPIKey         string
	ORSCountry        string
	OpenWeatherAPIKey string
	TomTomAPIKey      string
	Timeout           time.Duration
	// Wind speed (m/s) from which calm weather is reported as Windy.
	WindyWindSpeed float64
	// Serve fixed weather and traffic instead of calling providers.
	StubContext bool
}

type SinkConfig struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
	MemoryLimit  int
}

// LoadDotEnv loads .env into the environment if present. It reports whether a file was read.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Load reads the configuration from the environment. Malformed numbers, durations and
// booleans are errors rather than silent defaults.
func Load() (*Config, error) {
	var errs []string
	intVar := func(key string, fallback int) int {
		v, err := GetInt(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	floatVar := func(key string, fallback float64) float64 {
		v, err := GetFloat(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		v, err := GetDuration(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	boolVar := func(key string, fallback bool) bool {
		v, err := GetBool(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               Get("PORT", "5000"),
			MetricsAddr:        Get("METRICS_ADDR", ":9090"),
			CORSAllowedOrigins: GetList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			ShutdownTimeout:    durVar("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL: Get("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL:      Get("REDIS_URL", ""),
			CacheTTL: durVar("CONTEXT_CACHE_TTL", 10*time.Minute),
			Channel:  Get("PREDICTIONS_CHANNEL", "delivery:predictions"),
		},
		Artifacts: ArtifactsConfig{
			Dir: Get("ARTIFACTS_DIR", "artifacts"),
		},
		Providers: ProvidersConfig{
			Geocoder:          strings.ToLower(Get("GEOCODER", "nominatim")),
			NominatimBaseURL:  Get("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:         Get("GEOCODER_USER_AGENT", "delivery-eta-service"),
			ORSAPIKey:         Get("ORS_API_KEY", ""),
			ORSCountry:        Get("ORS_COUNTRY", ""),
			OpenWeatherAPIKey: Get("OPENWEATHER_API_KEY", ""),
			TomTomAPIKey:      Get("TOMTOM_API_KEY", ""),
			Timeout:           durVar("PROVIDER_TIMEOUT", 5*time.Second),
			WindyWindSpeed:    floatVar("WINDY_WIND_SPEED", 10.8),
			StubContext:       boolVar("STUB_CONTEXT", false),
		},
		Sink: SinkConfig{
			QueueSize:    intVar("SINK_QUEUE_SIZE", 256),
			Workers:      intVar("SINK_WORKERS", 2),
			WriteTimeout: durVar("SINK_WRITE_TIMEOUT", 5*time.Second),
			MemoryLimit:  intVar("MEMORY_STORE_LIMIT", 1000),
		},
		LogLevel: Get("LOG_LEVEL", "INFO"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("load config: %s", strings.Join(errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Providers.Geocoder {
	case "nominatim":
	case "ors":
		if c.Providers.ORSAPIKey == "" {
			return fmt.Errorf("GEOCODER=ors requires ORS_API_KEY")
		}
	default:
		return fmt.Errorf("GEOCODER must be nominatim or ors, got %q", c.Providers.Geocoder)
	}
	if c.Providers.WindyWindSpeed <= 0 {
		return fmt.Errorf("WINDY_WIND_SPEED must be positive")
	}
	if c.Sink.QueueSize < 1 || c.Sink.Workers < 1 || c.Sink.MemoryLimit < 1 {
		return fmt.Errorf("SINK_QUEUE_SIZE, SINK_WORKERS and MEMORY_STORE_LIMIT must be positive")
	}
	return nil
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func GetBool(key string, fallback bool) (bool, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

// GetList splits a comma-separated value, dropping empty items.
func GetList(key string, fallback []string) []string {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
