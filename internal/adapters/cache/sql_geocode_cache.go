package cache

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLGeocodeCache is a Postgres-backed cache mapping addresses to places.
type SQLGeocodeCache struct {
	DB *pgxpool.Pool
}

func NewSQLGeocodeCache(db *pgxpool.Pool) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch cached places for the given addresses.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Place, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueAddresses(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Place{}, nil
	}

	q := `
	SELECT address, lat, lon, city
	FROM geocode_cache
	WHERE address = ANY($1::text[]);
	`

	rows, err := s.DB.Query(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Place, len(uniq))
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(&p.Address, &p.Lat, &p.Lon, &p.City); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[p.Address] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store address -> place mappings in the cache.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, places map[string]domain.Place) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(places) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for addr, p := range places {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}
		batch.Queue(`
		INSERT INTO geocode_cache (address, lat, lon, city)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE
		SET lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			city = EXCLUDED.city,
			updated_at = now();
		`, addr, p.Lat, p.Lon, p.City)
	}

	if err := s.DB.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert geocode cache: %w", err)
	}
	return nil
}

func uniqueAddresses(addresses []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}

		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		uniq = append(uniq, a)
	}
	return uniq
}
