package simulationengine

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"github.com/urbanflow/traffic-sim/internal/geo"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

const (
	constructionRadiusM = 500
	facilityRadiusM     = 200
	facilityDistantM    = 1000
	facilityTripCap     = 100
	facilityDepartMaxS  = 3600

	minEdgeSpeed    = 5
	minEdgeCapacity = 10
)

// ImpactApplier mutates edge attributes near construction markers and
// injects facility-proximate trips. The only writer of Edge.Speed and
// Edge.Capacity after graph construction.
type ImpactApplier struct {
	graph  *RoadGraph
	routes *RouteBuilder
	rng    *rand.Rand

	tree     rtree.RTreeG[*entities.Edge]
	affected map[string]bool
	tripSeq  int

	Log []entities.ConstructionImpact
}

func NewImpactApplier(graph *RoadGraph, routes *RouteBuilder, rng *rand.Rand) *ImpactApplier {
	a := &ImpactApplier{
		graph:    graph,
		routes:   routes,
		rng:      rng,
		affected: make(map[string]bool),
	}
	for _, e := range graph.Edges {
		p := [2]float64{e.Geometry[0][0], e.Geometry[0][1]}
		a.tree.Insert(p, p, e)
	}
	return a
}

// AffectedEdges reports how many edges have been slowed so far.
func (a *ImpactApplier) AffectedEdges() int {
	return len(a.affected)
}

// Apply processes all markers and returns the extra vehicles generated
// by facility markers.
func (a *ImpactApplier) Apply(markers []entities.Marker, density float64) []*entities.Vehicle {
	var extra []*entities.Vehicle
	seenFacility := make(map[string]bool)

	for _, m := range markers {
		switch m.Type {
		case entities.MarkerConstruction:
			a.applyConstruction(m)
		case entities.MarkerFacility:
			key := fmt.Sprintf("%.6f,%.6f", m.Coordinates[0], m.Coordinates[1])
			if seenFacility[key] {
				continue
			}
			seenFacility[key] = true
			extra = append(extra, a.facilityTrips(m, density)...)
		}
	}
	return extra
}

func (a *ImpactApplier) applyConstruction(m entities.Marker) {
	for _, e := range a.edgesNear(m.Coordinates, constructionRadiusM) {
		if a.affected[e.ID] {
			continue
		}
		original := e.Speed
		e.Speed = math.Max(minEdgeSpeed, e.Speed*0.4)
		e.Capacity = math.Max(50, e.Capacity*0.6)
		if a.rng.Float64() < 0.05 {
			// Full closure of the work zone, reduced to a crawl lane.
			e.Speed = minEdgeSpeed
			e.Capacity = minEdgeCapacity
		}
		a.affected[e.ID] = true
		a.Log = append(a.Log, entities.ConstructionImpact{
			EdgeID:        e.ID,
			OriginalSpeed: original,
			ReducedSpeed:  e.Speed,
		})
	}
}

func (a *ImpactApplier) facilityTrips(m entities.Marker, density float64) []*entities.Vehicle {
	count := int(math.Round(density * 4 * 0.05))
	if count > facilityTripCap {
		count = facilityTripCap
	}
	if count <= 0 {
		return nil
	}

	nearby := a.edgesNear(m.Coordinates, facilityRadiusM)
	if len(nearby) == 0 {
		return nil
	}

	trips := make([]*entities.Vehicle, 0, count)
	for i := 0; i < count; i++ {
		origin := nearby[a.rng.IntN(len(nearby))]
		dest := a.routes.DistantEdge(origin, facilityDistantM)

		var route []string
		if dest != nil && dest.ID != origin.ID {
			route = a.routes.BuildRoute(origin, dest)
		} else {
			route = []string{origin.ID}
		}

		length := a.routes.RouteLength(route)
		if length < minRouteM {
			continue
		}
		v := &entities.Vehicle{
			ID:               fmt.Sprintf("facility_trip_%d", a.tripSeq),
			Route:            route,
			RouteCoordinates: a.routes.RoutePolyline(route, polylineStepM),
			RouteLengthM:     length,
			DepartTimeS:      a.rng.IntN(facilityDepartMaxS),
			Speed:            math.Max(10, origin.Speed*0.6),
		}
		a.tripSeq++
		trips = append(trips, v)
	}
	return trips
}

// edgesNear returns edges whose first geometry point lies within
// radiusM of p. Candidates come from an rtree box query, then get
// filtered by true great-circle distance.
func (a *ImpactApplier) edgesNear(p orb.Point, radiusM float64) []*entities.Edge {
	latPad := radiusM / 111320.0
	cos := math.Cos(p[1] * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	lngPad := radiusM / (111320.0 * cos)

	min := [2]float64{p[0] - lngPad, p[1] - latPad}
	max := [2]float64{p[0] + lngPad, p[1] + latPad}

	var out []*entities.Edge
	a.tree.Search(min, max, func(_, _ [2]float64, e *entities.Edge) bool {
		if geo.Distance(p, e.Geometry[0]) <= radiusM {
			out = append(out, e)
		}
		return true
	})
	return out
}
