package model

import (
	"fmt"

	"delivery-eta-service/internal/domain"

	"github.com/dmitryikh/leaves"
)

type leavesKind int

const (
	leavesLightGBM leavesKind = iota
	leavesXGBoost
)

// LeavesScorer scores native LightGBM text models and XGBoost binary models.
type LeavesScorer struct {
	ensemble *leaves.Ensemble
	version  string
}

// LoadLeaves reads a native model file. The raw regression output is used, without any
// objective transformation.
func LoadLeaves(path string, kind leavesKind, version string) (*LeavesScorer, error) {
	var (
		ens *leaves.Ensemble
		err error
	)
	switch kind {
	case leavesLightGBM:
		ens, err = leaves.LGEnsembleFromFile(path, false)
	case leavesXGBoost:
		ens, err = leaves.XGEnsembleFromFile(path, false)
	default:
		return nil, fmt.Errorf("load leaves model: unknown kind %d", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load leaves model %q: %w", path, err)
	}

	return &LeavesScorer{ensemble: ens, version: version}, nil
}

func (s *LeavesScorer) NumFeatures() int { return s.ensemble.NFeatures() }
func (s *LeavesScorer) Version() string  { return s.version }

func (s *LeavesScorer) Predict(vector []float64) (float64, error) {
	if len(vector) != s.ensemble.NFeatures() {
		return 0, &domain.ModelShapeError{Got: len(vector), Want: s.ensemble.NFeatures()}
	}
	return s.ensemble.PredictSingle(vector, 0), nil
}
