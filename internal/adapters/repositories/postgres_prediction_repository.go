package repositories

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const predictionColumns = `
	id, created_at, pickup_address, delivery_address,
	person_age, person_rating, pickup_lat, pickup_lon, delivery_lat, delivery_lon,
	order_date, order_time, weather, traffic_density, vehicle_condition, vehicle_type,
	multiple_deliveries, city, temperature_c, traffic_index,
	distance_km, avg_delivery_time_area, traffic_weather_impact, vehicle_capacity_utilization,
	predicted_minutes, model_version, schema_fingerprint`

// PostgresPredictionRepository stores predictions in the predictions table.
type PostgresPredictionRepository struct {
	DB *pgxpool.Pool
}

func NewPostgresPredictionRepository(db *pgxpool.Pool) *PostgresPredictionRepository {
	return &PostgresPredictionRepository{DB: db}
}

func (r *PostgresPredictionRepository) Record(ctx context.Context, rec domain.PredictionRecord) (err error) {
	defer obs.Time(ctx, "predictions.Record")(&err)

	if r.DB == nil {
		return errors.New("record prediction: db is nil")
	}

	f := rec.Features
	raw := f.Raw
	_, err = r.DB.Exec(ctx, `
	INSERT INTO predictions (`+predictionColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	ON CONFLICT (id) DO NOTHING;
	`,
		rec.ID, rec.CreatedAt, rec.PickupAddress, rec.DeliveryAddress,
		raw.PersonAge, raw.PersonRating, raw.Pickup.Lat, raw.Pickup.Lon, raw.Delivery.Lat, raw.Delivery.Lon,
		raw.OrderDate, raw.OrderTime, raw.Weather, raw.TrafficDensity, raw.VehicleCondition, raw.VehicleType,
		raw.MultipleDeliveries, raw.City, raw.TemperatureC, raw.TrafficIndex,
		f.DistanceKm, nullable(f.AvgDeliveryTimeArea), nullable(f.TrafficWeatherImpact), f.VehicleCapacityUtilization,
		rec.PredictedMinutes, rec.ModelVersion, rec.SchemaFingerprint,
	)
	if err != nil {
		return fmt.Errorf("record prediction id=%s: %w", rec.ID, err)
	}
	return nil
}

// Summary reports vehicle utilization as a percentage.
func (r *PostgresPredictionRepository) Summary(ctx context.Context) (_ domain.DeliveryMetrics, err error) {
	defer obs.Time(ctx, "predictions.Summary")(&err)

	var m domain.DeliveryMetrics
	err = r.DB.QueryRow(ctx, `
	SELECT count(*),
	       coalesce(avg(predicted_minutes), 0),
	       coalesce(avg(vehicle_capacity_utilization), 0) * 100
	FROM predictions;
	`).Scan(&m.TotalDeliveries, &m.AverageMinutes, &m.VehicleUtilization)
	if err != nil {
		return domain.DeliveryMetrics{}, fmt.Errorf("prediction summary: %w", err)
	}
	return m, nil
}

func (r *PostgresPredictionRepository) Trend(ctx context.Context, since time.Time) (_ []domain.TrendPoint, err error) {
	defer obs.Time(ctx, "predictions.Trend")(&err)

	rows, err := r.DB.Query(ctx, `
	SELECT date_trunc('hour', created_at) AS bucket,
	       avg(predicted_minutes),
	       avg(traffic_index),
	       avg(temperature_c),
	       count(*)
	FROM predictions
	WHERE created_at >= $1
	GROUP BY bucket
	ORDER BY bucket;
	`, since)
	if err != nil {
		return nil, fmt.Errorf("prediction trend: query: %w", err)
	}
	defer rows.Close()

	out := []domain.TrendPoint{}
	for rows.Next() {
		var p domain.TrendPoint
		if err := rows.Scan(&p.Bucket, &p.AverageMinutes, &p.AverageTraffic, &p.AverageTempC, &p.PredictionsCount); err != nil {
			return nil, fmt.Errorf("prediction trend: scan rows: %w", err)
		}
		p.Bucket = p.Bucket.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prediction trend: row iteration: %w", err)
	}
	return out, nil
}

func (r *PostgresPredictionRepository) Recent(ctx context.Context, limit int) (_ []domain.PredictionRecord, err error) {
	defer obs.Time(ctx, "predictions.Recent")(&err)

	rows, err := r.DB.Query(ctx, `
	SELECT `+predictionColumns+`
	FROM predictions
	ORDER BY created_at DESC
	LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent predictions: query: %w", err)
	}
	defer rows.Close()

	out := []domain.PredictionRecord{}
	for rows.Next() {
		var (
			rec        domain.PredictionRecord
			avgArea    *float64
			pairImpact *float64
		)
		f := &rec.Features
		raw := &f.Raw
		if err := rows.Scan(
			&rec.ID, &rec.CreatedAt, &rec.PickupAddress, &rec.DeliveryAddress,
			&raw.PersonAge, &raw.PersonRating, &raw.Pickup.Lat, &raw.Pickup.Lon, &raw.Delivery.Lat, &raw.Delivery.Lon,
			&raw.OrderDate, &raw.OrderTime, &raw.Weather, &raw.TrafficDensity, &raw.VehicleCondition, &raw.VehicleType,
			&raw.MultipleDeliveries, &raw.City, &raw.TemperatureC, &raw.TrafficIndex,
			&f.DistanceKm, &avgArea, &pairImpact, &f.VehicleCapacityUtilization,
			&rec.PredictedMinutes, &rec.ModelVersion, &rec.SchemaFingerprint,
		); err != nil {
			return nil, fmt.Errorf("recent predictions: scan rows: %w", err)
		}
		f.AvgDeliveryTimeArea = orNaN(avgArea)
		f.TrafficWeatherImpact = orNaN(pairImpact)
		if clock, err := domain.ParseOrderClock(raw.OrderDate, raw.OrderTime); err == nil {
			f.OrderClock = clock
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent predictions: row iteration: %w", err)
	}
	return out, nil
}

// NaN lookups are stored as NULL.
func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
