package handlers

import (
	"delivery-eta-service/internal/api/dto"
	"delivery-eta-service/internal/domain"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus(t *testing.T) {
	created := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)
	rec := domain.PredictionRecord{CreatedAt: created, PredictedMinutes: 30}

	assert.Equal(t, dto.StatusPending, orderStatus(rec, created.Add(-time.Minute)))
	assert.Equal(t, dto.StatusInProgress, orderStatus(rec, created.Add(10*time.Minute)))
	assert.Equal(t, dto.StatusDelivered, orderStatus(rec, created.Add(31*time.Minute)))
	assert.Equal(t, dto.StatusPending, orderStatus(domain.PredictionRecord{}, created))
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		url  string
		want int
		ok   bool
	}{
		{"/x", 24, true},
		{"/x?n=6", 6, true},
		{"/x?n=100000", 720, true},
		{"/x?n=0", 0, false},
		{"/x?n=-3", 0, false},
		{"/x?n=abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := queryInt(httptest.NewRequest("GET", tt.url, nil), "n", 24, 720)
		assert.Equal(t, tt.ok, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 27.99, round2(27.98765))
	assert.Equal(t, 28.0, round2(28))
}
