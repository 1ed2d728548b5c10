package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"delivery-eta-service/internal/domain"
)

const twoTrees = `{
  "format": "xgboost-json",
  "num_features": 3,
  "base_score": 20,
  "trees": [
    {"nodeid": 0, "split": "f0", "split_condition": 0.5, "yes": 1, "no": 2, "missing": 2,
     "children": [
       {"nodeid": 1, "leaf": -2},
       {"nodeid": 2, "split": "f2", "split_condition": 10, "yes": 3, "no": 4, "missing": 3,
        "children": [
          {"nodeid": 3, "leaf": 1.5},
          {"nodeid": 4, "leaf": 6}
        ]}
     ]},
    {"nodeid": 0, "split": "1", "split_condition": 0, "yes": 1, "no": 2,
     "children": [
       {"nodeid": 1, "leaf": 0.25},
       {"nodeid": 2, "leaf": 0.75}
     ]}
  ]
}`

func TestEnsemblePredict(t *testing.T) {
	e, err := DecodeEnsemble(strings.NewReader(twoTrees), "test-v1")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.NumFeatures() != 3 || e.Version() != "test-v1" {
		t.Fatalf("num features = %d, version = %q", e.NumFeatures(), e.Version())
	}

	tests := []struct {
		name string
		vec  []float64
		want float64
	}{
		{"left leaf", []float64{0, 1, 0}, 20 - 2 + 0.75},
		{"right then left", []float64{1, -1, 5}, 20 + 1.5 + 0.25},
		{"right then right", []float64{1, 0, 10}, 20 + 6 + 0.75},
		{"missing follows missing branch", []float64{math.NaN(), -1, math.NaN()}, 20 + 1.5 + 0.25},
		{"default missing is yes", []float64{0, math.NaN(), 0}, 20 - 2 + 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Predict(tt.vec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Predict(%v) = %v, want %v", tt.vec, got, tt.want)
			}
		})
	}
}

func TestEnsembleComparesInFloat32(t *testing.T) {
	const doc = `{"num_features": 1, "base_score": 0, "trees": [
	  {"nodeid": 0, "split": "f0", "split_condition": 0.300000012, "yes": 1, "no": 2,
	   "children": [{"nodeid": 1, "leaf": 1}, {"nodeid": 2, "leaf": 2}]}
	]}`
	e, err := DecodeEnsemble(strings.NewReader(doc), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	tests := []struct {
		x    float64
		want float64
	}{
		// 0.3 and 0.300000012 are the same float32, so the split is not taken.
		{0.3, 2},
		{0.2999999, 1},
		{0.31, 2},
	}
	for _, tt := range tests {
		got, err := e.Predict([]float64{tt.x})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Predict(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestEnsembleShapeMismatch(t *testing.T) {
	e, err := DecodeEnsemble(strings.NewReader(twoTrees), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	_, err = e.Predict([]float64{1, 2})
	var mse *domain.ModelShapeError
	if !errors.As(err, &mse) {
		t.Fatalf("err = %v, want ModelShapeError", err)
	}
	if mse.Got != 2 || mse.Want != 3 {
		t.Errorf("got %+v", mse)
	}
}

func TestDecodeEnsembleRejectsBadTrees(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no trees", `{"num_features": 2, "trees": []}`},
		{"no width", `{"num_features": 0, "trees": [{"nodeid": 0, "leaf": 1}]}`},
		{"feature out of range", `{"num_features": 1, "trees": [{"nodeid": 0, "split": "f3", "yes": 1, "no": 2,
			"children": [{"nodeid": 1, "leaf": 0}, {"nodeid": 2, "leaf": 1}]}]}`},
		{"dangling child", `{"num_features": 1, "trees": [{"nodeid": 0, "split": "f0", "yes": 1, "no": 7,
			"children": [{"nodeid": 1, "leaf": 0}]}]}`},
		{"named feature", `{"num_features": 1, "trees": [{"nodeid": 0, "split": "distance", "yes": 1, "no": 2,
			"children": [{"nodeid": 1, "leaf": 0}, {"nodeid": 2, "leaf": 1}]}]}`},
		{"not json", `trees`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeEnsemble(strings.NewReader(tt.body), ""); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestLoadDispatchesOnFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, []byte(twoTrees), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, FormatXGBoostJSON, "v")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.NumFeatures() != 3 {
		t.Errorf("num features = %d", s.NumFeatures())
	}

	if _, err := Load(path, "onnx", "v"); err == nil {
		t.Errorf("expected unsupported format error")
	}
	if _, err := Load(filepath.Join(dir, "missing.txt"), FormatLeavesLightGBM, "v"); err == nil {
		t.Errorf("expected error for missing leaves model")
	}
}
