package repositories

import (
	"context"
	"delivery-eta-service/internal/domain"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MemoryPredictionRepository keeps the most recent predictions in a bounded ring.
// Used when no database is configured.
type MemoryPredictionRepository struct {
	mu   sync.RWMutex
	buf  []domain.PredictionRecord
	next int
	full bool
}

func NewMemoryPredictionRepository(capacity int) *MemoryPredictionRepository {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryPredictionRepository{buf: make([]domain.PredictionRecord, capacity)}
}

func (r *MemoryPredictionRepository) Record(ctx context.Context, rec domain.PredictionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = rec
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// snapshot returns stored records newest first.
func (r *MemoryPredictionRepository) snapshot() []domain.PredictionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.buf)
	}
	out := make([]domain.PredictionRecord, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, r.buf[(r.next-i+len(r.buf))%len(r.buf)])
	}
	return out
}

func (r *MemoryPredictionRepository) Summary(ctx context.Context) (domain.DeliveryMetrics, error) {
	recs := r.snapshot()
	if len(recs) == 0 {
		return domain.DeliveryMetrics{}, nil
	}

	minutes := make([]float64, len(recs))
	util := make([]float64, len(recs))
	for i, rec := range recs {
		minutes[i] = rec.PredictedMinutes
		util[i] = rec.Features.VehicleCapacityUtilization
	}
	return domain.DeliveryMetrics{
		TotalDeliveries:    len(recs),
		AverageMinutes:     stat.Mean(minutes, nil),
		VehicleUtilization: stat.Mean(util, nil) * 100,
	}, nil
}

func (r *MemoryPredictionRepository) Trend(ctx context.Context, since time.Time) ([]domain.TrendPoint, error) {
	type bucket struct {
		minutes, traffic, temp []float64
	}
	buckets := map[time.Time]*bucket{}

	for _, rec := range r.snapshot() {
		if rec.CreatedAt.Before(since) {
			continue
		}
		key := rec.CreatedAt.UTC().Truncate(time.Hour)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.minutes = append(b.minutes, rec.PredictedMinutes)
		b.traffic = append(b.traffic, rec.Features.Raw.TrafficIndex)
		b.temp = append(b.temp, rec.Features.Raw.TemperatureC)
	}

	out := make([]domain.TrendPoint, 0, len(buckets))
	for key, b := range buckets {
		out = append(out, domain.TrendPoint{
			Bucket:           key,
			AverageMinutes:   stat.Mean(b.minutes, nil),
			AverageTraffic:   stat.Mean(b.traffic, nil),
			AverageTempC:     stat.Mean(b.temp, nil),
			PredictionsCount: len(b.minutes),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out, nil
}

func (r *MemoryPredictionRepository) Recent(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	recs := r.snapshot()
	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
