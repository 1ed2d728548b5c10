package enrichment

import (
	"context"
	"delivery-eta-service/internal/adapters/httpclient"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultTomTomBaseURL = "https://api.tomtom.com"

type flowSegmentResponse struct {
	FlowSegmentData struct {
		CurrentTravelTime  float64 `json:"currentTravelTime"`
		FreeFlowTravelTime float64 `json:"freeFlowTravelTime"`
	} `json:"flowSegmentData"`
}

// TomTomTraffic reads the flow segment nearest to a point and reports
// currentTravelTime / freeFlowTravelTime.
type TomTomTraffic struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

func NewTomTomTraffic(apiKey, baseURL string, timeout time.Duration) (*TomTomTraffic, error) {
	if apiKey == "" {
		return nil, errors.New("TomTom api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultTomTomBaseURL
	}
	return &TomTomTraffic{
		client:  httpclient.New(timeout, nil),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

func (t *TomTomTraffic) TrafficIndex(ctx context.Context, at domain.Coordinates) (_ float64, err error) {
	defer obs.Time(ctx, "tomtom.TrafficIndex")(&err)

	if err := at.Validate(); err != nil {
		return 0, &domain.ProviderError{Provider: "tomtom", Err: err}
	}

	var decoded flowSegmentResponse
	if err := t.client.GetJSON(ctx, t.baseURL+"/traffic/services/4/flowSegmentData/absolute/10/json", map[string]string{
		"point": strconv.FormatFloat(at.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(at.Lon, 'f', 6, 64),
		"key":   t.apiKey,
	}, &decoded); err != nil {
		return 0, &domain.ProviderError{Provider: "tomtom", Err: err}
	}

	cur := decoded.FlowSegmentData.CurrentTravelTime
	free := decoded.FlowSegmentData.FreeFlowTravelTime
	if free <= 0 || cur < 0 {
		return 0, &domain.ProviderError{
			Provider: "tomtom",
			Err:      fmt.Errorf("malformed flow segment: current=%v free_flow=%v", cur, free),
		}
	}
	return cur / free, nil
}
