package repositories

import (
	"context"
	"math"
	"testing"
	"time"

	"delivery-eta-service/internal/domain"
)

func record(id string, at time.Time, minutes, traffic, temp, util float64) domain.PredictionRecord {
	return domain.PredictionRecord{
		ID:               id,
		CreatedAt:        at,
		PredictedMinutes: minutes,
		Features: domain.DerivedFeatureSet{
			Raw: domain.RawDeliveryRecord{
				TrafficIndex: traffic,
				TemperatureC: temp,
			},
			AvgDeliveryTimeArea:        math.NaN(),
			VehicleCapacityUtilization: util,
		},
	}
}

func TestMemoryRepositoryRingKeepsNewest(t *testing.T) {
	repo := NewMemoryPredictionRepository(3)
	ctx := context.Background()
	base := time.Date(2026, 3, 19, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c", "d", "e"} {
		if err := repo.Record(ctx, record(id, base.Add(time.Duration(i)*time.Minute), 10, 1, 25, 0)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("len = %d, want 3", len(recent))
	}
	for i, want := range []string{"e", "d", "c"} {
		if recent[i].ID != want {
			t.Fatalf("recent[%d] = %q, want %q", i, recent[i].ID, want)
		}
	}

	recent, _ = repo.Recent(ctx, 1)
	if len(recent) != 1 || recent[0].ID != "e" {
		t.Fatalf("Recent(1) = %+v", recent)
	}
}

func TestMemoryRepositorySummary(t *testing.T) {
	repo := NewMemoryPredictionRepository(10)
	ctx := context.Background()

	m, err := repo.Summary(ctx)
	if err != nil || m.TotalDeliveries != 0 {
		t.Fatalf("empty summary = %+v, %v", m, err)
	}

	now := time.Now()
	_ = repo.Record(ctx, record("a", now, 20, 1, 25, 0.5))
	_ = repo.Record(ctx, record("b", now, 30, 1, 25, 1.0))

	m, err = repo.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if m.TotalDeliveries != 2 || m.AverageMinutes != 25 || m.VehicleUtilization != 75 {
		t.Fatalf("summary = %+v", m)
	}
}

func TestMemoryRepositoryTrend(t *testing.T) {
	repo := NewMemoryPredictionRepository(10)
	ctx := context.Background()
	h := time.Date(2026, 3, 19, 10, 0, 0, 0, time.UTC)

	_ = repo.Record(ctx, record("old", h.Add(-3*time.Hour), 99, 9, 9, 0))
	_ = repo.Record(ctx, record("a", h.Add(5*time.Minute), 20, 1.0, 30, 0))
	_ = repo.Record(ctx, record("b", h.Add(50*time.Minute), 30, 2.0, 32, 0))
	_ = repo.Record(ctx, record("c", h.Add(70*time.Minute), 40, 3.0, 28, 0))

	points, err := repo.Trend(ctx, h.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(points), points)
	}

	first, second := points[0], points[1]
	if !first.Bucket.Equal(h) || first.PredictionsCount != 2 || first.AverageMinutes != 25 ||
		first.AverageTraffic != 1.5 || first.AverageTempC != 31 {
		t.Fatalf("first bucket = %+v", first)
	}
	if !second.Bucket.Equal(h.Add(time.Hour)) || second.PredictionsCount != 1 || second.AverageMinutes != 40 {
		t.Fatalf("second bucket = %+v", second)
	}
}

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/eta?sslmode=disable":   "pgx5://u:p@db:5432/eta?sslmode=disable",
		"postgresql://u:p@db:5432/eta?sslmode=disable": "pgx5://u:p@db:5432/eta?sslmode=disable",
		"pgx5://u:p@db/eta":                            "pgx5://u:p@db/eta",
	}
	for in, want := range tests {
		if got := migrateURL(in); got != want {
			t.Errorf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmbeddedMigrationsPair(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 || len(entries)%2 != 0 {
		t.Fatalf("expected up/down pairs, got %d files", len(entries))
	}
}
