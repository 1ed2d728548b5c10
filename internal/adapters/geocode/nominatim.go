package geocode

import (
	"context"
	"delivery-eta-service/internal/adapters/httpclient"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

type nominatimResult struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		State        string `json:"state"`
	} `json:"address"`
}

// city picks the most specific locality Nominatim returned.
func (r nominatimResult) city() string {
	for _, c := range []string{r.Address.City, r.Address.Town, r.Address.Village, r.Address.Municipality, r.Address.County, r.Address.State} {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

// NominatimGeocoder resolves addresses with the OpenStreetMap Nominatim search API.
type NominatimGeocoder struct {
	client  *httpclient.Client
	baseURL string
}

// NewNominatimGeocoder requires a descriptive User-Agent per the Nominatim usage policy.
func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimBaseURL
	}
	return &NominatimGeocoder{
		client:  httpclient.New(timeout, map[string]string{"User-Agent": userAgent}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (n *NominatimGeocoder) Geocode(ctx context.Context, address string) (_ domain.Place, err error) {
	defer obs.Time(ctx, "nominatim.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Place{}, &domain.MalformedInputError{Field: "address", Reason: "required"}
	}

	var results []nominatimResult
	if err := n.client.GetJSON(ctx, n.baseURL+"/search", map[string]string{
		"q":              norm,
		"format":         "jsonv2",
		"limit":          "1",
		"addressdetails": "1",
	}, &results); err != nil {
		return domain.Place{}, &domain.ProviderError{Provider: "nominatim", Err: err}
	}

	if len(results) == 0 {
		return domain.Place{}, fmt.Errorf("nominatim %q: %w", norm, domain.ErrNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Place{}, &domain.ProviderError{Provider: "nominatim", Err: fmt.Errorf("parse lat %q: %w", results[0].Lat, err)}
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Place{}, &domain.ProviderError{Provider: "nominatim", Err: fmt.Errorf("parse lon %q: %w", results[0].Lon, err)}
	}

	place := domain.Place{
		Address:     norm,
		Coordinates: domain.Coordinates{Lat: lat, Lon: lon},
		City:        results[0].city(),
	}
	if err := place.Validate(); err != nil {
		return domain.Place{}, &domain.ProviderError{Provider: "nominatim", Err: err}
	}
	return place, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
