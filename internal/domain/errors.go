package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups (geocoding, repositories) that found nothing.
var ErrNotFound = errors.New("not found")

// MalformedInputError marks a request record that cannot be processed as given:
// unparseable date/time, out-of-range coordinates, missing required field.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

// ProviderError wraps a failure of an external context provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PreprocessingError signals that the fitted preprocessor could not transform a record,
// usually because a column it was fitted on is absent.
type PreprocessingError struct {
	Column string
	Reason string
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("preprocessing: column %q: %s", e.Column, e.Reason)
}

// ModelShapeError signals a mismatch between the vector width and the model's input width.
type ModelShapeError struct {
	Got  int
	Want int
}

func (e *ModelShapeError) Error() string {
	return fmt.Sprintf("model shape: got %d features, model expects %d", e.Got, e.Want)
}

// ArtifactError reports a trained artifact that is missing, unreadable or inconsistent.
type ArtifactError struct {
	Name string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Name, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
