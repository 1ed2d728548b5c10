// Package model scores preprocessed feature vectors with a pretrained gradient-boosted
// tree regressor.
package model

import (
	"fmt"
	"strings"
)

// Scorer maps a preprocessed vector to a predicted delivery duration in minutes.
// Implementations are read-only after load and safe for concurrent use.
type Scorer interface {
	Predict(vector []float64) (float64, error)
	NumFeatures() int
	Version() string
}

// Supported on-disk model formats.
const (
	FormatXGBoostJSON    = "xgboost-json"
	FormatLeavesLightGBM = "leaves-lightgbm"
	FormatLeavesXGBoost  = "leaves-xgboost"
)

// Load opens a model file in the given format.
func Load(path, format, version string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatXGBoostJSON, "":
		return LoadEnsemble(path, version)
	case FormatLeavesLightGBM:
		return LoadLeaves(path, leavesLightGBM, version)
	case FormatLeavesXGBoost:
		return LoadLeaves(path, leavesXGBoost, version)
	default:
		return nil, fmt.Errorf("load model: unsupported format %q", format)
	}
}
