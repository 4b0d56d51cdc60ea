package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

// HTTPTrafficProvider queries a flow-segment style traffic API when an
// endpoint is configured and synthesizes deterministic conditions
// otherwise.
type HTTPTrafficProvider struct {
	Client   *http.Client
	Endpoint string
	APIKey   string
	Log      logrus.FieldLogger
}

func NewTrafficProvider(endpoint, apiKey string, log logrus.FieldLogger) *HTTPTrafficProvider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTTPTrafficProvider{
		Client:   &http.Client{Timeout: 15 * time.Second},
		Endpoint: endpoint,
		APIKey:   apiKey,
		Log:      log,
	}
}

func (p *HTTPTrafficProvider) FetchTraffic(ctx context.Context, bbox orb.Bound) *entities.TrafficData {
	if p.Endpoint == "" {
		return FallbackTraffic(bbox)
	}
	data, err := p.fetch(ctx, bbox)
	if err != nil {
		p.Log.WithError(err).Warn("traffic fetch failed, using deterministic fallback")
		fb := FallbackTraffic(bbox)
		fb.Source = entities.SourceRegionalFallback
		return fb
	}
	data.Source = entities.SourcePrimary
	return data
}

func (p *HTTPTrafficProvider) fetch(ctx context.Context, bbox orb.Bound) (*entities.TrafficData, error) {
	u := fmt.Sprintf("%s?bbox=%f,%f,%f,%f&key=%s",
		p.Endpoint, bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1], p.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("traffic api status %d", resp.StatusCode)
	}

	var data entities.TrafficData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.CongestionLevel == "" {
		data.CongestionLevel = DeriveCongestionLevel(data.Flows, data.Incidents)
	}
	return &data, nil
}

// FallbackTraffic synthesizes conditions for the area: a handful of
// mid-speed flows laid diagonally across the box and a single minor
// incident. Deterministic for a given bbox.
func FallbackTraffic(bbox orb.Bound) *entities.TrafficData {
	center := bbox.Center()
	w := bbox.Max[0] - bbox.Min[0]
	h := bbox.Max[1] - bbox.Min[1]

	flows := make([]entities.Flow, 0, 4)
	for i := 0; i < 4; i++ {
		f := float64(i+1) / 5
		start := orb.Point{bbox.Min[0] + w*f, bbox.Min[1] + h*f}
		end := orb.Point{bbox.Min[0] + w*f, bbox.Min[1] + h*f*0.9}
		flows = append(flows, entities.Flow{
			RoadName:      fmt.Sprintf("corridor_%d", i+1),
			CurrentSpeed:  25 + 5*float64(i),
			FreeFlowSpeed: 50,
			Confidence:    0.7,
			Coordinates:   orb.LineString{start, end},
		})
	}

	return &entities.TrafficData{
		Flows: flows,
		Incidents: []entities.Incident{{
			ID:          "synthetic_incident_1",
			Type:        "roadworks",
			Severity:    "minor",
			Coordinates: center,
			Description: "estimated recurring congestion point",
		}},
		AverageDelayS:   120,
		CongestionLevel: entities.CongestionMedium,
		Source:          entities.SourceEstimate,
	}
}

// DeriveCongestionLevel grades the area from the flow speed ratio and
// incident count.
func DeriveCongestionLevel(flows []entities.Flow, incidents []entities.Incident) entities.CongestionLevel {
	if len(flows) == 0 {
		return entities.CongestionLow
	}
	ratioSum := 0.0
	counted := 0
	for _, f := range flows {
		if f.FreeFlowSpeed > 0 {
			ratioSum += f.CurrentSpeed / f.FreeFlowSpeed
			counted++
		}
	}
	if counted == 0 {
		return entities.CongestionLow
	}
	ratio := ratioSum / float64(counted)
	ratio -= math.Min(0.1, 0.02*float64(len(incidents)))

	switch {
	case ratio < 0.4:
		return entities.CongestionSevere
	case ratio < 0.6:
		return entities.CongestionHigh
	case ratio < 0.8:
		return entities.CongestionMedium
	default:
		return entities.CongestionLow
	}
}
