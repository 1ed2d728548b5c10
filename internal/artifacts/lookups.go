package artifacts

import (
	"encoding/json"
	"fmt"
	"os"

	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/features"
)

type cityAverageFile struct {
	SchemaFingerprint string             `json:"schema_fingerprint"`
	Values            map[string]float64 `json:"values"`
}

type trafficWeatherEntry struct {
	Traffic string  `json:"traffic"`
	Weather string  `json:"weather"`
	Mean    float64 `json:"mean"`
}

type trafficWeatherFile struct {
	SchemaFingerprint string                `json:"schema_fingerprint"`
	Values            []trafficWeatherEntry `json:"values"`
}

type vehicleMaxFile struct {
	SchemaFingerprint string             `json:"schema_fingerprint"`
	Values            map[string]float64 `json:"values"`
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// loadLookups reads the three lookup files, checking each file's fingerprint.
func loadLookups(m *Manifest, dir, want string) (*features.LookupTables, error) {
	var city cityAverageFile
	if err := readLookup(dir, m.Lookups.AvgDeliveryTimeArea, &city, func() string { return city.SchemaFingerprint }, want); err != nil {
		return nil, err
	}

	var pair trafficWeatherFile
	if err := readLookup(dir, m.Lookups.TrafficWeatherImpact, &pair, func() string { return pair.SchemaFingerprint }, want); err != nil {
		return nil, err
	}

	var vehicle vehicleMaxFile
	if err := readLookup(dir, m.Lookups.MaxDeliveriesPerVehicle, &vehicle, func() string { return vehicle.SchemaFingerprint }, want); err != nil {
		return nil, err
	}

	pairs := make(map[features.TrafficWeatherKey]float64, len(pair.Values))
	for _, e := range pair.Values {
		pairs[features.TrafficWeatherKey{Traffic: e.Traffic, Weather: e.Weather}] = e.Mean
	}

	return features.NewLookupTables(city.Values, pairs, vehicle.Values), nil
}

func readLookup(dir, name string, v any, fp func() string, want string) error {
	if name == "" {
		return &domain.ArtifactError{Name: "lookup", Err: fmt.Errorf("not named in manifest")}
	}
	if err := readJSON(resolve(dir, name), v); err != nil {
		return &domain.ArtifactError{Name: name, Err: err}
	}
	if got := fp(); got != want {
		return &domain.ArtifactError{Name: name, Err: fmt.Errorf("schema fingerprint %q, want %q", got, want)}
	}
	return nil
}

// WriteLookups writes the three lookup files named in m.
func WriteLookups(m *Manifest, dir string, lt *features.LookupTables) error {
	city, pair, vehicle := lt.Snapshot()

	entries := make([]trafficWeatherEntry, 0, len(pair))
	for k, v := range pair {
		entries = append(entries, trafficWeatherEntry{Traffic: k.Traffic, Weather: k.Weather, Mean: v})
	}
	sortEntries(entries)

	if err := writeJSON(resolve(dir, m.Lookups.AvgDeliveryTimeArea), cityAverageFile{
		SchemaFingerprint: m.SchemaFingerprint, Values: city,
	}); err != nil {
		return fmt.Errorf("write lookups: %w", err)
	}
	if err := writeJSON(resolve(dir, m.Lookups.TrafficWeatherImpact), trafficWeatherFile{
		SchemaFingerprint: m.SchemaFingerprint, Values: entries,
	}); err != nil {
		return fmt.Errorf("write lookups: %w", err)
	}
	if err := writeJSON(resolve(dir, m.Lookups.MaxDeliveriesPerVehicle), vehicleMaxFile{
		SchemaFingerprint: m.SchemaFingerprint, Values: vehicle,
	}); err != nil {
		return fmt.Errorf("write lookups: %w", err)
	}
	return nil
}
