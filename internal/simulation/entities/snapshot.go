package entities

import (
	"github.com/paulmach/orb"
)

// VehiclePosition is one interpolated vehicle in a live snapshot. The
// edge trail and the densified polyline are both emitted so clients can
// smooth between ticks.
type VehiclePosition struct {
	ID          string         `json:"id"`
	Coordinates orb.Point      `json:"coordinates"`
	Speed       float64        `json:"speed"`
	Bearing     float64        `json:"bearing"`
	Progress    float64        `json:"progress"`
	EdgeTrail   []string       `json:"route"`
	Polyline    orb.LineString `json:"route_coordinates"`
}

type CongestionSegment struct {
	Coordinates orb.LineString `json:"coordinates"`
	Level       SegmentLevel   `json:"level"`
}

type LiveSnapshot struct {
	TimestampS         int                 `json:"timestamp"`
	Vehicles           []VehiclePosition   `json:"vehicles"`
	CongestionSegments []CongestionSegment `json:"congestion_segments"`
	TotalVehicles      int                 `json:"total_vehicles"`
	AverageSpeed       float64             `json:"average_speed"`
}
