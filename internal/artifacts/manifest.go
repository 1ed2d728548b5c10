// Package artifacts loads and writes the trained bundle the predictor runs on: lookup
// tables, fitted preprocessor and model, tied together by manifest.json.
package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/features"
	"delivery-eta-service/internal/model"
	"delivery-eta-service/internal/preprocess"
)

// ManifestFile is the bundle entry point inside an artifacts directory.
const ManifestFile = "manifest.json"

// Manifest names every file in a bundle. Relative paths resolve against the bundle directory.
type Manifest struct {
	SchemaFingerprint string `json:"schema_fingerprint"`
	ModelVersion      string `json:"model_version"`

	Lookups struct {
		AvgDeliveryTimeArea     string `json:"avg_delivery_time_area"`
		TrafficWeatherImpact    string `json:"traffic_weather_impact"`
		MaxDeliveriesPerVehicle string `json:"max_deliveries_per_vehicle"`
	} `json:"lookups"`

	Preprocessor string `json:"preprocessor"`

	Model struct {
		Path   string `json:"path"`
		Format string `json:"format"`
	} `json:"model"`
}

// DefaultManifest returns a manifest with the conventional file names.
func DefaultManifest(modelVersion, modelPath, modelFormat string) *Manifest {
	m := &Manifest{
		SchemaFingerprint: SchemaFingerprint(),
		ModelVersion:      modelVersion,
		Preprocessor:      "preprocessor.json",
	}
	m.Lookups.AvgDeliveryTimeArea = "avg_delivery_time_area.json"
	m.Lookups.TrafficWeatherImpact = "traffic_weather_impact.json"
	m.Lookups.MaxDeliveriesPerVehicle = "max_deliveries_per_vehicle.json"
	m.Model.Path = modelPath
	m.Model.Format = modelFormat
	return m
}

// Trained is a fully loaded, mutually consistent bundle. Read-only after Load.
type Trained struct {
	Manifest     Manifest
	Lookups      *features.LookupTables
	Preprocessor *preprocess.Transformer
	Model        model.Scorer
}

// Load reads the bundle in dir. Any missing file, fingerprint mismatch or width mismatch
// fails the load; nothing is partially returned.
func Load(dir string) (*Trained, error) {
	var m Manifest
	if err := readJSON(filepath.Join(dir, ManifestFile), &m); err != nil {
		return nil, &domain.ArtifactError{Name: ManifestFile, Err: err}
	}

	want := SchemaFingerprint()
	if m.SchemaFingerprint != want {
		return nil, &domain.ArtifactError{
			Name: ManifestFile,
			Err:  fmt.Errorf("schema fingerprint %q, want %q", m.SchemaFingerprint, want),
		}
	}

	lookups, err := loadLookups(&m, dir, want)
	if err != nil {
		return nil, err
	}
	if lookups.Cities() == 0 {
		return nil, &domain.ArtifactError{Name: m.Lookups.AvgDeliveryTimeArea, Err: fmt.Errorf("no cities")}
	}

	if m.Preprocessor == "" {
		return nil, &domain.ArtifactError{Name: "preprocessor", Err: fmt.Errorf("not named in manifest")}
	}
	pre, err := preprocess.Load(resolve(dir, m.Preprocessor))
	if err != nil {
		return nil, &domain.ArtifactError{Name: m.Preprocessor, Err: err}
	}
	if pre.SchemaFingerprint != want {
		return nil, &domain.ArtifactError{
			Name: m.Preprocessor,
			Err:  fmt.Errorf("schema fingerprint %q, want %q", pre.SchemaFingerprint, want),
		}
	}
	if err := checkInputColumns(pre.InputColumns()); err != nil {
		return nil, &domain.ArtifactError{Name: m.Preprocessor, Err: err}
	}

	if m.Model.Path == "" {
		return nil, &domain.ArtifactError{Name: "model", Err: fmt.Errorf("not named in manifest")}
	}
	scorer, err := model.Load(resolve(dir, m.Model.Path), m.Model.Format, m.ModelVersion)
	if err != nil {
		return nil, &domain.ArtifactError{Name: m.Model.Path, Err: err}
	}
	if pre.Width() != scorer.NumFeatures() {
		return nil, &domain.ModelShapeError{Got: pre.Width(), Want: scorer.NumFeatures()}
	}

	slog.Info("artifacts loaded",
		"dir", dir,
		"model_version", m.ModelVersion,
		"model_format", m.Model.Format,
		"features", pre.Width(),
		"cities", lookups.Cities(),
	)

	return &Trained{Manifest: m, Lookups: lookups, Preprocessor: pre, Model: scorer}, nil
}

// WriteManifest writes m as dir/manifest.json.
func WriteManifest(dir string, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, ManifestFile), m); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// WritePreprocessor writes t to the file m names.
func WritePreprocessor(m *Manifest, dir string, t *preprocess.Transformer) error {
	f, err := os.Create(resolve(dir, m.Preprocessor))
	if err != nil {
		return fmt.Errorf("write preprocessor: %w", err)
	}
	defer f.Close()
	if err := t.Encode(f); err != nil {
		return fmt.Errorf("write preprocessor: %w", err)
	}
	return f.Close()
}

func checkInputColumns(cols []string) error {
	known := make(map[string]struct{}, len(domain.FeatureColumns))
	for _, c := range domain.FeatureColumns {
		known[c] = struct{}{}
	}
	for _, c := range cols {
		if _, ok := known[c]; !ok {
			return fmt.Errorf("preprocessor consumes unknown column %q", c)
		}
	}
	return nil
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func sortEntries(entries []trafficWeatherEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Traffic != entries[j].Traffic {
			return entries[i].Traffic < entries[j].Traffic
		}
		return entries[i].Weather < entries[j].Weather
	})
}
