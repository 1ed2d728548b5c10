package ports

import (
	"context"
	"delivery-eta-service/internal/domain"
	"time"
)

// Port: receives scored predictions. Implementations must not block the caller for long;
// failures are logged by the caller and never fail the prediction.
type PredictionSink interface {
	Record(ctx context.Context, rec domain.PredictionRecord) error
}

// Port: stored predictions, read back for the dashboard endpoints.
type PredictionRepository interface {
	PredictionSink
	Summary(ctx context.Context) (domain.DeliveryMetrics, error)
	Trend(ctx context.Context, since time.Time) ([]domain.TrendPoint, error)
	Recent(ctx context.Context, limit int) ([]domain.PredictionRecord, error)
}
