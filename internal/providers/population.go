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

	"github.com/urbanflow/traffic-sim/internal/geo"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

// Urban default assumptions for the estimate path.
const (
	estimateDensityPerKm2 = 6000.0
	estimateVehicleShare  = 0.3
	estimatePeakFactor    = 0.12
)

// HTTPPopulationProvider queries a census-style API when configured;
// otherwise it estimates from the bounding-box area under urban
// density assumptions.
type HTTPPopulationProvider struct {
	Client   *http.Client
	Endpoint string
	Log      logrus.FieldLogger
}

func NewPopulationProvider(endpoint string, log logrus.FieldLogger) *HTTPPopulationProvider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTTPPopulationProvider{
		Client:   &http.Client{Timeout: 15 * time.Second},
		Endpoint: endpoint,
		Log:      log,
	}
}

func (p *HTTPPopulationProvider) FetchPopulation(ctx context.Context, bbox orb.Bound) *entities.PopulationData {
	if p.Endpoint == "" {
		return EstimatePopulation(bbox)
	}
	data, err := p.fetch(ctx, bbox)
	if err != nil {
		p.Log.WithError(err).Warn("population fetch failed, using area estimate")
		fb := EstimatePopulation(bbox)
		fb.Source = entities.SourceRegionalFallback
		return fb
	}
	data.Source = entities.SourcePrimary
	return data
}

func (p *HTTPPopulationProvider) fetch(ctx context.Context, bbox orb.Bound) (*entities.PopulationData, error) {
	u := fmt.Sprintf("%s?bbox=%f,%f,%f,%f",
		p.Endpoint, bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1])

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
		return nil, fmt.Errorf("population api status %d", resp.StatusCode)
	}

	var data entities.PopulationData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// EstimatePopulation derives deterministic population figures from the
// bounding-box area.
func EstimatePopulation(bbox orb.Bound) *entities.PopulationData {
	area := geo.BoundAreaKm2(bbox)
	total := int(math.Round(estimateDensityPerKm2 * area))

	return &entities.PopulationData{
		Total:             total,
		Density:           estimateDensityPerKm2,
		EstimatedVehicles: int(math.Round(float64(total) * estimateVehicleShare)),
		PeakHourFactor:    estimatePeakFactor,
		AgeDistribution: map[string]float64{
			"0-14":  0.12,
			"15-64": 0.65,
			"65+":   0.23,
		},
		WorkingPopulation: int(math.Round(float64(total) * 0.55)),
		Source:            entities.SourceEstimate,
	}
}
