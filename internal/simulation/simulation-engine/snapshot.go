package simulationengine

import (
	"math"
	"sort"

	"github.com/urbanflow/traffic-sim/internal/geo"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

const congestionSegmentCap = 20

// SnapshotBuilder interpolates active vehicles along their densified
// polylines and enumerates congested segments. Polyline lengths are
// cached per vehicle so repeated snapshots stay cheap.
type SnapshotBuilder struct {
	graph   *RoadGraph
	polyLen map[string]float64
}

func NewSnapshotBuilder(graph *RoadGraph) *SnapshotBuilder {
	return &SnapshotBuilder{graph: graph, polyLen: make(map[string]float64)}
}

// Build assembles the live snapshot for simulated time t. The vehicle
// sample is ordered by id so adjacent ticks animate the same vehicles.
func (b *SnapshotBuilder) Build(t int, vehicles []*entities.Vehicle, occupancy map[string]int, sampleSize int) entities.LiveSnapshot {
	var active []*entities.Vehicle
	speedSum := 0.0
	for _, v := range vehicles {
		if v.Active(t) {
			active = append(active, v)
			speedSum += v.Speed
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	snap := entities.LiveSnapshot{
		TimestampS:    t,
		TotalVehicles: len(active),
	}
	if len(active) > 0 {
		snap.AverageSpeed = math.Round(speedSum/float64(len(active))*10) / 10
	}

	n := sampleSize
	if n > len(active) {
		n = len(active)
	}
	snap.Vehicles = make([]entities.VehiclePosition, 0, n)
	for _, v := range active[:n] {
		snap.Vehicles = append(snap.Vehicles, b.position(v))
	}

	snap.CongestionSegments = b.congestionSegments(occupancy)
	return snap
}

func (b *SnapshotBuilder) position(v *entities.Vehicle) entities.VehiclePosition {
	length, ok := b.polyLen[v.ID]
	if !ok {
		length = geo.LineLength(v.RouteCoordinates)
		b.polyLen[v.ID] = length
	}

	progress := 1.0
	if v.RouteLengthM > 0 {
		progress = math.Min(1, v.DistanceTraveledM/v.RouteLengthM)
	}

	point := geo.PointAlong(v.RouteCoordinates, progress*length)
	ahead := geo.PointAlong(v.RouteCoordinates, math.Min(1, progress+0.001)*length)

	bearing := 0.0
	if point != ahead {
		bearing = geo.Bearing(point, ahead)
	}

	return entities.VehiclePosition{
		ID:          v.ID,
		Coordinates: point,
		Speed:       v.Speed,
		Bearing:     bearing,
		Progress:    progress,
		EdgeTrail:   v.Route,
		Polyline:    v.RouteCoordinates,
	}
}

func (b *SnapshotBuilder) congestionSegments(occupancy map[string]int) []entities.CongestionSegment {
	var segments []entities.CongestionSegment
	for _, e := range b.graph.Edges {
		if len(segments) >= congestionSegmentCap {
			break
		}
		u := utilization(occupancy[e.ID], e.Capacity)
		var level entities.SegmentLevel
		switch {
		case u > 0.8:
			level = entities.SegmentHigh
		case u > 0.5:
			level = entities.SegmentMedium
		case u > 0.3:
			level = entities.SegmentLow
		default:
			continue
		}
		segments = append(segments, entities.CongestionSegment{
			Coordinates: e.Geometry,
			Level:       level,
		})
	}
	return segments
}
