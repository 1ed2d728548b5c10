package preprocess

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"delivery-eta-service/internal/domain"

	"gonum.org/v1/gonum/stat"
)

// GroupSpec declares a group before fitting.
type GroupSpec struct {
	Name      string
	Kind      GroupKind
	Features  []string
	DropFirst bool
}

// DefaultLayout is the group layout used by the training pipeline.
func DefaultLayout() []GroupSpec {
	return []GroupSpec{
		{
			Name: "num_pipeline",
			Kind: KindRobust,
			Features: []string{
				domain.ColPersonAge,
				domain.ColPersonRating,
				domain.ColAvgDeliveryTimeArea,
				domain.ColVehicleCapacityUtilization,
				domain.ColOrderDay,
				domain.ColOrderMonth,
				domain.ColOrderYear,
				domain.ColOrderHour,
				domain.ColOrderMinute,
				domain.ColDistanceKm,
			},
		},
		{
			Name: "cat_pipeline",
			Kind: KindOneHot,
			Features: []string{
				domain.ColWeather,
				domain.ColTrafficDensity,
				domain.ColCity,
				domain.ColVehicleType,
			},
			DropFirst: true,
		},
		{
			Name: "mode_pipeline",
			Kind: KindOneHot,
			Features: []string{
				domain.ColMultipleDeliveries,
				domain.ColTrafficWeatherImpact,
			},
			DropFirst: true,
		},
		{
			Name:     "ordinal_pipeline",
			Kind:     KindOrdinal,
			Features: []string{domain.ColVehicleCondition},
		},
		{
			Name: "location_pipeline",
			Kind: KindStandard,
			Features: []string{
				domain.ColPickupLat,
				domain.ColPickupLon,
				domain.ColDeliveryLat,
				domain.ColDeliveryLon,
				domain.ColDistanceKm,
			},
		},
	}
}

// Fit estimates every group's parameters from the training rows.
func Fit(fingerprint string, layout []GroupSpec, rows []domain.DerivedFeatureSet) (*Transformer, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit preprocessor: no rows")
	}

	groups := make([]Group, 0, len(layout))
	for _, spec := range layout {
		g := Group{
			Name:      spec.Name,
			Kind:      spec.Kind,
			Features:  append([]string(nil), spec.Features...),
			DropFirst: spec.DropFirst,
		}

		for _, name := range spec.Features {
			values, err := column(rows, name)
			if err != nil {
				return nil, fmt.Errorf("fit preprocessor: group %q: %w", spec.Name, err)
			}

			switch spec.Kind {
			case KindRobust:
				fill, center, scale := fitRobust(values)
				g.Fill = append(g.Fill, fill)
				g.Center = append(g.Center, center)
				g.Scale = append(g.Scale, scale)
			case KindStandard:
				fill, center, scale := fitStandard(values)
				g.Fill = append(g.Fill, fill)
				g.Center = append(g.Center, center)
				g.Scale = append(g.Scale, scale)
			case KindOneHot, KindOrdinal:
				fill, cats := fitCategorical(values, spec.Kind == KindOrdinal)
				g.FillCategory = append(g.FillCategory, fill)
				g.Categories = append(g.Categories, cats)
			default:
				return nil, fmt.Errorf("fit preprocessor: group %q: unknown kind %q", spec.Name, spec.Kind)
			}
		}

		groups = append(groups, g)
	}

	return New(fingerprint, groups)
}

func column(rows []domain.DerivedFeatureSet, name string) ([]domain.Value, error) {
	out := make([]domain.Value, 0, len(rows))
	for _, r := range rows {
		v, ok := r.Column(name)
		if !ok {
			return nil, &domain.PreprocessingError{Column: name, Reason: "absent from training rows"}
		}
		out = append(out, v)
	}
	return out, nil
}

func present(values []domain.Value) []float64 {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Categorical || math.IsNaN(v.Number) {
			continue
		}
		xs = append(xs, v.Number)
	}
	return xs
}

// fitRobust returns the mean (imputation), the median and the interquartile range.
// A column with no observations or no spread gets a unit scale.
func fitRobust(values []domain.Value) (fill, center, scale float64) {
	xs := present(values)
	if len(xs) == 0 {
		return 0, 0, 1
	}
	fill = stat.Mean(xs, nil)

	// Imputed rows take part in the quantiles, as they do after imputation in training.
	all := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Categorical || math.IsNaN(v.Number) {
			all = append(all, fill)
			continue
		}
		all = append(all, v.Number)
	}
	sort.Float64s(all)

	center = percentile(all, 0.5)
	iqr := percentile(all, 0.75) - percentile(all, 0.25)
	if iqr == 0 || math.IsNaN(iqr) {
		iqr = 1
	}
	return fill, center, iqr
}

// percentile linearly interpolates between the closest ranks of sorted, at position
// (n-1)*p. This is the default convention of numpy and of the scaler the model was
// trained with; gonum's LinInterp places ranks differently.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// fitStandard returns the mean (imputation and centering) and the population standard
// deviation of the imputed column.
func fitStandard(values []domain.Value) (fill, center, scale float64) {
	xs := present(values)
	if len(xs) == 0 {
		return 0, 0, 1
	}
	fill = stat.Mean(xs, nil)

	all := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Categorical || math.IsNaN(v.Number) {
			all = append(all, fill)
			continue
		}
		all = append(all, v.Number)
	}

	mean, std := stat.PopMeanStdDev(all, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return fill, mean, std
}

// fitCategorical returns the most frequent category and the sorted vocabulary.
// Ties resolve to the smallest category, numerically when every label is a number.
func fitCategorical(values []domain.Value, ordinal bool) (string, []string) {
	counts := make(map[string]int)
	for _, v := range values {
		if v.Missing() {
			continue
		}
		counts[v.Key()]++
	}

	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sortCategories(cats)

	fill := ""
	best := -1
	for _, c := range cats {
		if counts[c] > best {
			best = counts[c]
			fill = c
		}
	}
	if len(cats) == 0 && ordinal {
		return "0", []string{"0"}
	}
	return fill, cats
}

func sortCategories(cats []string) {
	numeric := true
	nums := make(map[string]float64, len(cats))
	for _, c := range cats {
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[c] = f
	}

	if numeric {
		sort.Slice(cats, func(i, j int) bool { return nums[cats[i]] < nums[cats[j]] })
		return
	}
	sort.Strings(cats)
}
