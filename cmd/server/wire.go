package main

import (
	"context"
	"delivery-eta-service/internal/adapters/cache"
	"delivery-eta-service/internal/adapters/enrichment"
	"delivery-eta-service/internal/adapters/geocode"
	"delivery-eta-service/internal/adapters/repositories"
	"delivery-eta-service/internal/adapters/sinks"
	"delivery-eta-service/internal/config"
	"delivery-eta-service/internal/platform/db"
	"delivery-eta-service/internal/platform/kv"
	"delivery-eta-service/internal/ports"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// infra holds the optional shared connections. Either field may be nil.
type infra struct {
	pool  *pgxpool.Pool
	redis *kv.Store
}

func connectInfra(ctx context.Context, cfg *config.Config) (*infra, error) {
	in := &infra{}

	if cfg.Database.URL != "" {
		pool, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		in.pool = pool
	} else {
		slog.Warn("DATABASE_URL not set, predictions kept in memory only")
	}

	if cfg.Redis.URL != "" {
		store, err := kv.Connect(ctx, cfg.Redis.URL, 5)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.redis = store
	} else {
		slog.Warn("REDIS_URL not set, context caching and prediction events disabled")
	}

	return in, nil
}

func (in *infra) Close() {
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.pool != nil {
		in.pool.Close()
	}
}

func buildGeocoder(cfg *config.Config, in *infra) (ports.Geocoder, error) {
	p := cfg.Providers

	var geocoder ports.Geocoder
	switch p.Geocoder {
	case "ors":
		g, err := geocode.NewORSGeocoder(p.ORSAPIKey, "", p.ORSCountry, p.Timeout)
		if err != nil {
			return nil, fmt.Errorf("build geocoder: %w", err)
		}
		geocoder = g
	default:
		geocoder = geocode.NewNominatimGeocoder(p.NominatimBaseURL, p.UserAgent, p.Timeout)
	}
	slog.Info("geocoder configured", "provider", p.Geocoder, "cached", in.pool != nil)

	if in.pool != nil {
		geocoder = geocode.NewCachedGeocoder(geocoder, cache.NewSQLGeocodeCache(in.pool))
	}
	return geocoder, nil
}

// buildContextProviders picks live or fixed weather and traffic. A provider whose API key
// is missing falls back to its fixed values rather than failing startup.
func buildContextProviders(cfg *config.Config, in *infra) (ports.WeatherProvider, ports.TrafficProvider) {
	p := cfg.Providers
	var (
		weather ports.WeatherProvider = enrichment.StaticWeather{Weather: enrichment.StubWeather}
		traffic ports.TrafficProvider = enrichment.StaticTraffic{Index: enrichment.StubTrafficIndex}
	)

	if p.StubContext {
		slog.Warn("STUB_CONTEXT enabled, serving fixed weather and traffic")
		return weather, traffic
	}

	ow, err := enrichment.NewOpenWeather(p.OpenWeatherAPIKey, "", p.Timeout)
	switch {
	case err != nil:
		slog.Warn("weather provider disabled, using fixed weather", "err", err)
	case in.redis != nil:
		ow.WindyThreshold = p.WindyWindSpeed
		weather = enrichment.NewCachedWeather(ow, in.redis, cfg.Redis.CacheTTL)
	default:
		ow.WindyThreshold = p.WindyWindSpeed
		weather = ow
	}

	if tt, err := enrichment.NewTomTomTraffic(p.TomTomAPIKey, "", p.Timeout); err != nil {
		slog.Warn("traffic provider disabled, using fixed traffic index", "err", err)
	} else if in.redis != nil {
		traffic = enrichment.NewCachedTraffic(tt, in.redis, cfg.Redis.CacheTTL)
	} else {
		traffic = tt
	}

	return weather, traffic
}

// buildSinks returns the repository the dashboard reads and the dispatcher predictions
// are written through.
func buildSinks(cfg *config.Config, in *infra) (ports.PredictionRepository, *sinks.Dispatcher) {
	var repo ports.PredictionRepository
	if in.pool != nil {
		repo = repositories.NewPostgresPredictionRepository(in.pool)
	} else {
		repo = repositories.NewMemoryPredictionRepository(cfg.Sink.MemoryLimit)
	}

	targets := []sinks.Named{{Name: "repository", Sink: repo}}
	if in.redis != nil {
		targets = append(targets, sinks.Named{
			Name: "redis",
			Sink: sinks.NewRedisPublisher(in.redis, cfg.Redis.Channel),
		})
	}

	d := sinks.NewDispatcher(cfg.Sink.QueueSize, cfg.Sink.Workers, cfg.Sink.WriteTimeout, targets...)
	return repo, d
}
