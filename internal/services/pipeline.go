package services

import (
	"delivery-eta-service/internal/artifacts"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/features"
	"delivery-eta-service/internal/platform/obs"
	"errors"
	"fmt"
	"math"
	"time"
)

// PipelineResult carries the intermediate stages so callers can persist and inspect them.
type PipelineResult struct {
	Features         domain.DerivedFeatureSet
	Vector           []float64
	PredictedMinutes float64
}

// Pipeline is the synchronous core: derive features, transform, score.
// It performs no I/O and holds only the immutable trained bundle.
type Pipeline struct {
	trained *artifacts.Trained
}

func NewPipeline(trained *artifacts.Trained) (*Pipeline, error) {
	if trained == nil || trained.Lookups == nil || trained.Preprocessor == nil || trained.Model == nil {
		return nil, errors.New("new pipeline: trained artifacts are incomplete")
	}
	return &Pipeline{trained: trained}, nil
}

// ModelVersion reports the loaded model's version string.
func (p *Pipeline) ModelVersion() string { return p.trained.Model.Version() }

// SchemaFingerprint reports the fingerprint the bundle was fitted against.
func (p *Pipeline) SchemaFingerprint() string { return p.trained.Manifest.SchemaFingerprint }

// Width is the number of columns the model consumes.
func (p *Pipeline) Width() int { return p.trained.Preprocessor.Width() }

// Predict runs one record through the core. Errors are the typed domain errors:
// MalformedInputError, PreprocessingError or ModelShapeError.
func (p *Pipeline) Predict(raw domain.RawDeliveryRecord) (PipelineResult, error) {
	start := time.Now()
	defer func() { obs.PipelineDuration.Observe(time.Since(start).Seconds()) }()

	fs, err := features.DeriveFeatures(raw, p.trained.Lookups)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("pipeline: derive features: %w", err)
	}

	vec, err := p.trained.Preprocessor.Transform(fs)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("pipeline: transform: %w", err)
	}

	minutes, err := p.trained.Model.Predict(vec)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("pipeline: score: %w", err)
	}

	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return PipelineResult{}, fmt.Errorf("pipeline: score: model returned %v", minutes)
	}
	// Tree ensembles can extrapolate below zero on outliers.
	if minutes < 0 {
		minutes = 0
	}

	return PipelineResult{Features: fs, Vector: vec, PredictedMinutes: minutes}, nil
}
