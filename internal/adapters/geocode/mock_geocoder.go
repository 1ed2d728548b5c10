package geocode

import (
	"context"
	"delivery-eta-service/internal/domain"
	"fmt"
	"sync"
)

// MockGeocoder answers from a fixed address table and counts calls.
type MockGeocoder struct {
	places map[string]domain.Place

	mu    sync.Mutex
	calls map[string]int
}

func NewMockGeocoder(places map[string]domain.Place) *MockGeocoder {
	m := make(map[string]domain.Place, len(places))
	for addr, p := range places {
		m[normalize(addr)] = p
	}
	return &MockGeocoder{places: m, calls: map[string]int{}}
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (domain.Place, error) {
	norm := normalize(address)

	m.mu.Lock()
	m.calls[norm]++
	m.mu.Unlock()

	p, ok := m.places[norm]
	if !ok {
		return domain.Place{}, fmt.Errorf("mock geocode %q: %w", norm, domain.ErrNotFound)
	}
	return p, nil
}

// Calls reports how often address was looked up.
func (m *MockGeocoder) Calls(address string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[normalize(address)]
}
