package training

import (
	"delivery-eta-service/internal/artifacts"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/features"
	"delivery-eta-service/internal/preprocess"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNoExamples is returned when nothing is left to fit on.
var ErrNoExamples = errors.New("no usable training examples")

// Fitted is everything fitartifacts writes except the model itself.
type Fitted struct {
	Lookups      *features.LookupTables
	Preprocessor *preprocess.Transformer
	// Examples that failed feature derivation.
	Dropped int
}

// FitLookups computes the three training aggregates: mean duration per city, mean
// duration per (traffic, weather) pair and the largest multiple_deliveries per vehicle
// type. Missing keys and values are left out of their group.
func FitLookups(examples []Example) *features.LookupTables {
	byCity := map[string][]float64{}
	byPair := map[features.TrafficWeatherKey][]float64{}
	vehicleMax := map[string]float64{}

	for _, ex := range examples {
		r := ex.Raw
		if r.City != "" {
			byCity[r.City] = append(byCity[r.City], ex.TimeTaken)
		}
		if r.TrafficDensity != "" && r.Weather != "" {
			k := features.TrafficWeatherKey{Traffic: r.TrafficDensity, Weather: r.Weather}
			byPair[k] = append(byPair[k], ex.TimeTaken)
		}
		if r.VehicleType != "" && !math.IsNaN(r.MultipleDeliveries) {
			if cur, ok := vehicleMax[r.VehicleType]; !ok || r.MultipleDeliveries > cur {
				vehicleMax[r.VehicleType] = r.MultipleDeliveries
			}
		}
	}

	cityAvg := make(map[string]float64, len(byCity))
	for k, v := range byCity {
		cityAvg[k] = stat.Mean(v, nil)
	}
	pairAvg := make(map[features.TrafficWeatherKey]float64, len(byPair))
	for k, v := range byPair {
		pairAvg[k] = stat.Mean(v, nil)
	}
	return features.NewLookupTables(cityAvg, pairAvg, vehicleMax)
}

// Fit builds the lookup tables, derives features for every example and fits the
// preprocessor on the derived rows.
func Fit(examples []Example) (*Fitted, error) {
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}

	lookups := FitLookups(examples)

	rows := make([]domain.DerivedFeatureSet, 0, len(examples))
	dropped := 0
	for _, ex := range examples {
		raw := ex.Raw
		// Derivation requires a non-negative count; the imputer handles the gap instead.
		missingCount := math.IsNaN(raw.MultipleDeliveries)
		if missingCount {
			raw.MultipleDeliveries = 0
		}
		fs, err := features.DeriveFeatures(raw, lookups)
		if err != nil {
			dropped++
			continue
		}
		if missingCount {
			fs.Raw.MultipleDeliveries = math.NaN()
		}
		rows = append(rows, fs)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit: %w (all %d failed derivation)", ErrNoExamples, dropped)
	}

	pre, err := preprocess.Fit(artifacts.SchemaFingerprint(), preprocess.DefaultLayout(), rows)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	return &Fitted{Lookups: lookups, Preprocessor: pre, Dropped: dropped}, nil
}
