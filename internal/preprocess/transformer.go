// Package preprocess implements the fitted column transformer that turns a derived
// feature set into the fixed-width numeric vector the model was trained on.
package preprocess

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"delivery-eta-service/internal/domain"
)

// GroupKind selects the statistical treatment of a feature group.
type GroupKind string

const (
	// Mean imputation, then (x - median) / IQR.
	KindRobust GroupKind = "robust"
	// Mean imputation, then (x - mean) / std.
	KindStandard GroupKind = "standard"
	// Most-frequent imputation, then one-hot; unknown categories encode as all zeros.
	KindOneHot GroupKind = "onehot"
	// Most-frequent imputation, then the category's rank.
	KindOrdinal GroupKind = "ordinal"
)

// Group is one fitted block of the transformer. Per-feature slices are index-aligned
// with Features.
type Group struct {
	Name     string    `json:"name"`
	Kind     GroupKind `json:"kind"`
	Features []string  `json:"features"`

	Fill   []float64 `json:"fill,omitempty"`
	Center []float64 `json:"center,omitempty"`
	Scale  []float64 `json:"scale,omitempty"`

	FillCategory []string   `json:"fill_category,omitempty"`
	Categories   [][]string `json:"categories,omitempty"`
	DropFirst    bool       `json:"drop_first,omitempty"`
}

// Transformer is fitted once offline and applied unmodified at inference.
type Transformer struct {
	SchemaFingerprint string  `json:"schema_fingerprint"`
	Groups            []Group `json:"groups"`

	width   int
	columns []string
	index   []map[string]int
}

// Load reads a transformer from a JSON file.
func Load(path string) (*Transformer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load preprocessor: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a transformer from JSON and validates it.
func Decode(r io.Reader) (*Transformer, error) {
	var t Transformer
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode preprocessor: %w", err)
	}
	if err := t.init(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Encode writes the transformer as indented JSON.
func (t *Transformer) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// init validates the fitted parameters and precomputes the output layout.
func (t *Transformer) init() error {
	if len(t.Groups) == 0 {
		return errors.New("preprocessor: no groups")
	}

	t.width = 0
	t.columns = t.columns[:0]
	t.index = make([]map[string]int, 0)

	for gi := range t.Groups {
		g := &t.Groups[gi]
		n := len(g.Features)
		if n == 0 {
			return fmt.Errorf("preprocessor: group %q has no features", g.Name)
		}

		switch g.Kind {
		case KindRobust, KindStandard:
			if len(g.Fill) != n || len(g.Center) != n || len(g.Scale) != n {
				return fmt.Errorf("preprocessor: group %q: fill/center/scale must have %d entries", g.Name, n)
			}
			for i, s := range g.Scale {
				if s == 0 || math.IsNaN(s) {
					return fmt.Errorf("preprocessor: group %q: zero scale for %q", g.Name, g.Features[i])
				}
			}
			for _, f := range g.Features {
				t.columns = append(t.columns, g.Name+"__"+f)
			}
			t.width += n

		case KindOneHot, KindOrdinal:
			if len(g.FillCategory) != n || len(g.Categories) != n {
				return fmt.Errorf("preprocessor: group %q: fill_category/categories must have %d entries", g.Name, n)
			}
			for i, cats := range g.Categories {
				idx := make(map[string]int, len(cats))
				for j, c := range cats {
					if _, dup := idx[c]; dup {
						return fmt.Errorf("preprocessor: group %q: duplicate category %q for %q", g.Name, c, g.Features[i])
					}
					idx[c] = j
				}
				t.index = append(t.index, idx)

				if g.Kind == KindOrdinal {
					t.columns = append(t.columns, g.Name+"__"+g.Features[i])
					t.width++
					continue
				}
				start := 0
				if g.DropFirst && len(cats) > 0 {
					start = 1
				}
				for _, c := range cats[start:] {
					t.columns = append(t.columns, g.Name+"__"+g.Features[i]+"_"+c)
				}
				t.width += len(cats) - start
			}

		default:
			return fmt.Errorf("preprocessor: group %q: unknown kind %q", g.Name, g.Kind)
		}
	}

	return nil
}

// Width is the length of every vector Transform produces.
func (t *Transformer) Width() int { return t.width }

// Columns names each output position, e.g. "cat_pipeline__vehicle_type_scooter".
func (t *Transformer) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// InputColumns lists the feature names the transformer reads, in group order.
func (t *Transformer) InputColumns() []string {
	var out []string
	for _, g := range t.Groups {
		out = append(out, g.Features...)
	}
	return out
}

// Transform maps a derived feature set to the model's input vector.
func (t *Transformer) Transform(fs domain.DerivedFeatureSet) ([]float64, error) {
	out := make([]float64, 0, t.width)
	catIdx := 0

	for _, g := range t.Groups {
		for i, name := range g.Features {
			v, ok := fs.Column(name)
			if !ok {
				return nil, &domain.PreprocessingError{Column: name, Reason: "absent from input record"}
			}

			switch g.Kind {
			case KindRobust, KindStandard:
				if v.Categorical {
					return nil, &domain.PreprocessingError{Column: name, Reason: "expected a numeric value"}
				}
				x := v.Number
				if math.IsNaN(x) {
					x = g.Fill[i]
				}
				out = append(out, (x-g.Center[i])/g.Scale[i])

			case KindOneHot:
				out = appendOneHot(out, t.index[catIdx], g.Categories[i], g.DropFirst, categoryOf(v, g.FillCategory[i]))
				catIdx++

			case KindOrdinal:
				rank, ok := t.index[catIdx][categoryOf(v, g.FillCategory[i])]
				if !ok {
					// Unknown ranks fall back to the imputed category.
					rank, ok = t.index[catIdx][g.FillCategory[i]]
					if !ok {
						return nil, &domain.PreprocessingError{Column: name, Reason: fmt.Sprintf("unknown ordinal category %q", v.Key())}
					}
				}
				out = append(out, float64(rank))
				catIdx++
			}
		}
	}

	return out, nil
}

func categoryOf(v domain.Value, fill string) string {
	if v.Missing() {
		return fill
	}
	return v.Key()
}

func appendOneHot(out []float64, index map[string]int, cats []string, dropFirst bool, key string) []float64 {
	start := 0
	if dropFirst && len(cats) > 0 {
		start = 1
	}

	base := len(out)
	for range cats[start:] {
		out = append(out, 0)
	}

	if j, ok := index[key]; ok && j >= start {
		out[base+j-start] = 1
	}
	return out
}

// New builds a transformer from already-fitted groups.
func New(fingerprint string, groups []Group) (*Transformer, error) {
	t := &Transformer{SchemaFingerprint: fingerprint, Groups: groups}
	if err := t.init(); err != nil {
		return nil, err
	}
	return t, nil
}
