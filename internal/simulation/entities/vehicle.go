package entities

import (
	"github.com/paulmach/orb"
)

// Vehicle is owned exclusively by the microsimulation loop. Route holds
// edge ids only, never edge pointers; the densified polyline is frozen
// at demand time.
type Vehicle struct {
	ID                  string         `json:"id"`
	Route               []string       `json:"route"`
	RouteCoordinates    orb.LineString `json:"route_coordinates"`
	RouteLengthM        float64        `json:"route_length_m"`
	DepartTimeS         int            `json:"depart_time_s"`
	ArrivalTimeS        *int           `json:"arrival_time_s,omitempty"`
	Speed               float64        `json:"speed"`
	CurrentEdgeProgress float64        `json:"current_edge_progress"`
	DistanceTraveledM   float64        `json:"distance_traveled_m"`
	EmissionsG          float64        `json:"emissions_g"`
}

// Status derives the lifecycle state at simulated time t.
func (v *Vehicle) Status(t int) VehicleStatus {
	switch {
	case v.ArrivalTimeS != nil:
		return VehicleStatusArrived
	case v.DepartTimeS <= t:
		return VehicleStatusActive
	default:
		return VehicleStatusScheduled
	}
}

// Active reports whether the vehicle is on the road at simulated time t.
func (v *Vehicle) Active(t int) bool {
	return v.ArrivalTimeS == nil && v.DepartTimeS <= t && len(v.Route) > 0
}
