package enrichment

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/ports"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// JSONCache is the subset of the Redis store the caching decorators need.
type JSONCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type cachedWeather struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c"`
}

// CachedWeather serves weather per city from cache for ttl. Only successful provider
// answers are cached; cache errors fall through to the provider.
type CachedWeather struct {
	provider ports.WeatherProvider
	cache    JSONCache
	ttl      time.Duration
}

func NewCachedWeather(provider ports.WeatherProvider, cache JSONCache, ttl time.Duration) *CachedWeather {
	return &CachedWeather{provider: provider, cache: cache, ttl: ttl}
}

func (c *CachedWeather) CurrentWeather(ctx context.Context, city string) (domain.Weather, error) {
	key := "weather:" + strings.ToLower(strings.Join(strings.Fields(city), " "))

	var hit cachedWeather
	found, err := c.cache.Get(ctx, key, &hit)
	if err != nil {
		slog.WarnContext(ctx, "weather cache read failed", "key", key, "err", err)
	} else if found {
		obs.ContextCacheHits.WithLabelValues("weather").Inc()
		return domain.Weather{Condition: hit.Condition, TemperatureC: hit.TemperatureC}, nil
	}

	w, err := c.provider.CurrentWeather(ctx, city)
	if err != nil {
		return domain.Weather{}, err
	}

	if err := c.cache.Set(ctx, key, cachedWeather{Condition: w.Condition, TemperatureC: w.TemperatureC}, c.ttl); err != nil {
		slog.WarnContext(ctx, "weather cache write failed", "key", key, "err", err)
	}
	return w, nil
}

// CachedTraffic serves the traffic index per ~100 m grid cell from cache for ttl.
type CachedTraffic struct {
	provider ports.TrafficProvider
	cache    JSONCache
	ttl      time.Duration
}

func NewCachedTraffic(provider ports.TrafficProvider, cache JSONCache, ttl time.Duration) *CachedTraffic {
	return &CachedTraffic{provider: provider, cache: cache, ttl: ttl}
}

func (c *CachedTraffic) TrafficIndex(ctx context.Context, at domain.Coordinates) (float64, error) {
	key := fmt.Sprintf("traffic:%.3f,%.3f", at.Lat, at.Lon)

	var hit float64
	found, err := c.cache.Get(ctx, key, &hit)
	if err != nil {
		slog.WarnContext(ctx, "traffic cache read failed", "key", key, "err", err)
	} else if found {
		obs.ContextCacheHits.WithLabelValues("traffic").Inc()
		return hit, nil
	}

	idx, err := c.provider.TrafficIndex(ctx, at)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(ctx, key, idx, c.ttl); err != nil {
		slog.WarnContext(ctx, "traffic cache write failed", "key", key, "err", err)
	}
	return idx, nil
}
