package geocode

import (
	"context"
	"delivery-eta-service/internal/adapters/httpclient"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"errors"
	"fmt"
	"strings"
	"time"
)

const DefaultORSBaseURL = "https://api.openrouteservice.org"

type orsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Locality string `json:"locality"`
			County   string `json:"county"`
			Region   string `json:"region"`
		} `json:"properties"`
	} `json:"features"`
}

// ORSGeocoder resolves addresses with OpenRouteService (/geocode/search).
type ORSGeocoder struct {
	client  *httpclient.Client
	baseURL string
	// Optional ISO country restriction, e.g. "IN".
	country string
}

func NewORSGeocoder(apiKey, baseURL, country string, timeout time.Duration) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultORSBaseURL
	}
	return &ORSGeocoder{
		client:  httpclient.New(timeout, map[string]string{"Authorization": apiKey}),
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
	}, nil
}

func (o *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Place, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Place{}, &domain.MalformedInputError{Field: "address", Reason: "required"}
	}

	query := map[string]string{"text": norm, "size": "1"}
	if o.country != "" {
		query["boundary.country"] = o.country
	}

	var decoded orsResponse
	if err := o.client.GetJSON(ctx, o.baseURL+"/geocode/search", query, &decoded); err != nil {
		return domain.Place{}, &domain.ProviderError{Provider: "ors", Err: err}
	}

	if len(decoded.Features) == 0 {
		return domain.Place{}, fmt.Errorf("ors %q: %w", norm, domain.ErrNotFound)
	}

	f := decoded.Features[0]
	coords := f.Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Place{}, &domain.ProviderError{Provider: "ors", Err: fmt.Errorf("invalid coordinate format for %q", norm)}
	}

	city := f.Properties.Locality
	if city == "" {
		city = f.Properties.County
	}
	if city == "" {
		city = f.Properties.Region
	}

	// GeoJSON order is [lon, lat].
	return domain.Place{
		Address:     norm,
		Coordinates: domain.Coordinates{Lon: coords[0], Lat: coords[1]},
		City:        city,
	}, nil
}
