package entities

import (
	"github.com/paulmach/orb"
)

type Incident struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Coordinates orb.Point `json:"coordinates"`
	Description string    `json:"description,omitempty"`
}

type Flow struct {
	RoadName      string         `json:"road_name"`
	CurrentSpeed  float64        `json:"current_speed"`
	FreeFlowSpeed float64        `json:"free_flow_speed"`
	Confidence    float64        `json:"confidence"`
	Coordinates   orb.LineString `json:"coordinates"`
}

// TrafficData is a read-only snapshot of real-time conditions for the
// simulated area.
type TrafficData struct {
	Incidents       []Incident      `json:"incidents"`
	Flows           []Flow          `json:"flows"`
	AverageDelayS   float64         `json:"average_delay_s"`
	CongestionLevel CongestionLevel `json:"congestion_level"`
	Source          DataSource      `json:"source"`
}

type PopulationData struct {
	Total             int                `json:"total"`
	Density           float64            `json:"density"`
	EstimatedVehicles int                `json:"estimated_vehicles"`
	PeakHourFactor    float64            `json:"peak_hour_factor"`
	AgeDistribution   map[string]float64 `json:"age_distribution,omitempty"`
	WorkingPopulation int                `json:"working_population"`
	Source            DataSource         `json:"source"`
}
