package services

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/ports"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Attribute defaults used when the caller omits courier or vehicle details.
const (
	DefaultPersonAge          = 30.0
	DefaultPersonRating       = 4.5
	DefaultVehicleType        = "motorcycle"
	DefaultVehicleCondition   = 1
	DefaultMultipleDeliveries = 0.0
)

// PredictRequest is one /predict call. Nil pointers take the defaults above; a nil
// OrderedAt means now.
type PredictRequest struct {
	PickupAddress      string
	DeliveryAddress    string
	City               string
	PersonAge          *float64
	PersonRating       *float64
	VehicleType        *string
	VehicleCondition   *int
	MultipleDeliveries *float64
	OrderedAt          *time.Time
}

// Prediction is the enriched answer for one request.
type Prediction struct {
	ID               string
	CreatedAt        time.Time
	Pickup           domain.Place
	Delivery         domain.Place
	DistanceKm       float64
	Weather          domain.Weather
	TrafficIndex     float64
	TrafficDensity   string
	PredictedMinutes float64
	ModelVersion     string
}

// DeliveryService owns every network call of a prediction and then hands a fully
// populated record to the Pipeline.
type DeliveryService struct {
	Geocoder ports.Geocoder
	Weather  ports.WeatherProvider
	Traffic  ports.TrafficProvider
	Pipeline *Pipeline
	// Optional; nil disables persistence.
	Sink ports.PredictionSink

	Now   func() time.Time
	NewID func() string
}

func NewDeliveryService(
	geocoder ports.Geocoder,
	weather ports.WeatherProvider,
	traffic ports.TrafficProvider,
	pipeline *Pipeline,
	sink ports.PredictionSink,
) *DeliveryService {
	return &DeliveryService{
		Geocoder: geocoder,
		Weather:  weather,
		Traffic:  traffic,
		Pipeline: pipeline,
		Sink:     sink,
		Now:      time.Now,
		NewID:    func() string { return uuid.NewString() },
	}
}

// Geocode resolves a single address.
func (s *DeliveryService) Geocode(ctx context.Context, address string) (_ domain.Place, err error) {
	defer obs.Time(ctx, "service.Geocode")(&err)

	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Place{}, &domain.MalformedInputError{Field: "address", Reason: "required"}
	}
	return s.Geocoder.Geocode(ctx, address)
}

// Predict geocodes both addresses, gathers weather and traffic context, and scores the
// assembled record. Weather and traffic failures degrade to fallbacks; geocoding
// failures do not.
func (s *DeliveryService) Predict(ctx context.Context, req PredictRequest) (_ *Prediction, err error) {
	defer obs.Time(ctx, "service.Predict")(&err)
	defer func() {
		if err != nil {
			obs.PredictionsFailed.WithLabelValues(errorKind(err)).Inc()
		}
	}()

	pickupAddr := strings.TrimSpace(req.PickupAddress)
	deliveryAddr := strings.TrimSpace(req.DeliveryAddress)
	if pickupAddr == "" {
		return nil, &domain.MalformedInputError{Field: "pickupAddress", Reason: "required"}
	}
	if deliveryAddr == "" {
		return nil, &domain.MalformedInputError{Field: "address", Reason: "required"}
	}

	var pickup, delivery domain.Place
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.Geocoder.Geocode(gctx, pickupAddr)
		if err != nil {
			return fmt.Errorf("geocode pickup %q: %w", pickupAddr, err)
		}
		pickup = p
		return nil
	})
	g.Go(func() error {
		p, err := s.Geocoder.Geocode(gctx, deliveryAddr)
		if err != nil {
			return fmt.Errorf("geocode delivery %q: %w", deliveryAddr, err)
		}
		delivery = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	weather, trafficIndex := s.fetchContext(ctx, delivery.City, pickup.Coordinates)

	now := s.Now()
	orderedAt := now
	if req.OrderedAt != nil {
		orderedAt = *req.OrderedAt
	}

	raw := domain.RawDeliveryRecord{
		PersonAge:          floatOr(req.PersonAge, DefaultPersonAge),
		PersonRating:       floatOr(req.PersonRating, DefaultPersonRating),
		Pickup:             pickup.Coordinates,
		Delivery:           delivery.Coordinates,
		Weather:            weather.Condition,
		TrafficDensity:     domain.TrafficDensityFromIndex(trafficIndex),
		VehicleCondition:   DefaultVehicleCondition,
		VehicleType:        DefaultVehicleType,
		MultipleDeliveries: floatOr(req.MultipleDeliveries, DefaultMultipleDeliveries),
		City:               strings.TrimSpace(req.City),
		TemperatureC:       weather.TemperatureC,
		TrafficIndex:       trafficIndex,
	}
	if req.VehicleCondition != nil {
		raw.VehicleCondition = *req.VehicleCondition
	}
	if req.VehicleType != nil && strings.TrimSpace(*req.VehicleType) != "" {
		raw.VehicleType = strings.TrimSpace(*req.VehicleType)
	}
	raw.SetOrderedAt(orderedAt)

	res, err := s.Pipeline.Predict(raw)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	obs.PredictionsTotal.Inc()

	out := &Prediction{
		ID:               s.NewID(),
		CreatedAt:        now,
		Pickup:           pickup,
		Delivery:         delivery,
		DistanceKm:       res.Features.DistanceKm,
		Weather:          weather,
		TrafficIndex:     trafficIndex,
		TrafficDensity:   raw.TrafficDensity,
		PredictedMinutes: res.PredictedMinutes,
		ModelVersion:     s.Pipeline.ModelVersion(),
	}

	s.record(ctx, domain.PredictionRecord{
		ID:                out.ID,
		CreatedAt:         now,
		PickupAddress:     pickupAddr,
		DeliveryAddress:   deliveryAddr,
		Features:          res.Features,
		PredictedMinutes:  res.PredictedMinutes,
		ModelVersion:      out.ModelVersion,
		SchemaFingerprint: s.Pipeline.SchemaFingerprint(),
	})

	return out, nil
}

// fetchContext gathers weather and traffic concurrently. Neither can fail the request.
func (s *DeliveryService) fetchContext(ctx context.Context, city string, at domain.Coordinates) (domain.Weather, float64) {
	weather := domain.DefaultWeather
	trafficIndex := domain.FallbackTrafficIndex

	var g errgroup.Group
	g.Go(func() error {
		w, err := s.Weather.CurrentWeather(ctx, city)
		if err != nil {
			obs.ProviderFallbacks.WithLabelValues("weather").Inc()
			slog.WarnContext(ctx, "weather fallback",
				"req_id", obs.RequestID(ctx), "city", city, "err", err)
			return nil
		}
		weather = w
		return nil
	})
	g.Go(func() error {
		idx, err := s.Traffic.TrafficIndex(ctx, at)
		if err != nil {
			obs.ProviderFallbacks.WithLabelValues("traffic").Inc()
			slog.WarnContext(ctx, "traffic fallback",
				"req_id", obs.RequestID(ctx), "lat", at.Lat, "lon", at.Lon, "err", err)
			return nil
		}
		trafficIndex = idx
		return nil
	})
	_ = g.Wait()

	return weather, trafficIndex
}

// record hands the prediction to the sink. Failures are logged and swallowed.
func (s *DeliveryService) record(ctx context.Context, rec domain.PredictionRecord) {
	if s.Sink == nil {
		return
	}
	if err := s.Sink.Record(context.WithoutCancel(ctx), rec); err != nil {
		slog.ErrorContext(ctx, "record prediction",
			"req_id", obs.RequestID(ctx), "id", rec.ID, "err", err)
	}
}

func floatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

// errorKind labels a failure for metrics.
func errorKind(err error) string {
	var (
		malformed *domain.MalformedInputError
		pre       *domain.PreprocessingError
		shape     *domain.ModelShapeError
		provider  *domain.ProviderError
	)
	switch {
	case errors.As(err, &malformed):
		return "malformed_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.As(err, &provider):
		return "provider"
	case errors.As(err, &pre):
		return "preprocessing"
	case errors.As(err, &shape):
		return "model_shape"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
