package geocode

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/ports"
	"fmt"
	"log/slog"
)

// CachedGeocoder checks a persistent cache before calling the provider and stores
// fresh results. Cache failures are logged and bypassed.
type CachedGeocoder struct {
	provider ports.Geocoder
	cache    ports.GeocodeCache
}

func NewCachedGeocoder(provider ports.Geocoder, cache ports.GeocodeCache) *CachedGeocoder {
	return &CachedGeocoder{provider: provider, cache: cache}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (domain.Place, error) {
	norm := normalize(address)
	if norm == "" {
		return domain.Place{}, &domain.MalformedInputError{Field: "address", Reason: "required"}
	}

	hits, err := c.cache.GetMany(ctx, []string{norm})
	if err != nil {
		slog.WarnContext(ctx, "geocode cache read failed", "address", norm, "err", err)
	} else if p, ok := hits[norm]; ok {
		return p, nil
	}

	p, err := c.provider.Geocode(ctx, norm)
	if err != nil {
		return domain.Place{}, fmt.Errorf("cached geocode: %w", err)
	}

	if err := c.cache.PutMany(ctx, map[string]domain.Place{norm: p}); err != nil {
		slog.WarnContext(ctx, "geocode cache write failed", "address", norm, "err", err)
	}
	return p, nil
}
