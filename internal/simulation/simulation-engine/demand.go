package simulationengine

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

const (
	departWindowS  = 2400
	minRouteM      = 200
	polylineStepM  = 5
	distantOriginM = 2000
)

var trafficMultiplier = map[entities.CongestionLevel]float64{
	entities.CongestionSevere: 1.3,
	entities.CongestionHigh:   1.2,
	entities.CongestionMedium: 1.1,
	entities.CongestionLow:    1.0,
}

// DemandGenerator turns population and congestion conditions into a
// set of scheduled vehicles with assigned routes.
type DemandGenerator struct {
	graph       *RoadGraph
	routes      *RouteBuilder
	rng         *rand.Rand
	MaxVehicles int
}

func NewDemandGenerator(graph *RoadGraph, routes *RouteBuilder, rng *rand.Rand, maxVehicles int) *DemandGenerator {
	return &DemandGenerator{graph: graph, routes: routes, rng: rng, MaxVehicles: maxVehicles}
}

// VehicleCount derives the demand from population data and the global
// congestion level, capped at MaxVehicles.
func (d *DemandGenerator) VehicleCount(pop *entities.PopulationData, level entities.CongestionLevel) int {
	mult, ok := trafficMultiplier[level]
	if !ok {
		mult = 1.0
	}
	raw := int(math.Round(float64(pop.EstimatedVehicles) * pop.PeakHourFactor * mult))
	if raw > d.MaxVehicles {
		return d.MaxVehicles
	}
	if raw < 0 {
		return 0
	}
	return raw
}

// Generate creates the scheduled vehicle fleet. Vehicles whose route
// comes out shorter than 200 m are discarded at creation.
func (d *DemandGenerator) Generate(pop *entities.PopulationData, level entities.CongestionLevel) []*entities.Vehicle {
	count := d.VehicleCount(pop, level)
	if len(d.graph.Edges) == 0 {
		return nil
	}

	vehicles := make([]*entities.Vehicle, 0, count)
	for i := 0; i < count; i++ {
		origin := d.graph.Edges[d.rng.IntN(len(d.graph.Edges))]
		dest := d.routes.DistantEdge(origin, distantOriginM)

		var route []string
		if dest != nil && dest.ID != origin.ID {
			route = d.routes.BuildRoute(origin, dest)
		} else {
			route = []string{origin.ID}
		}

		v := d.buildVehicle(fmt.Sprintf("vehicle_%d", i), origin, route)
		if v == nil {
			continue
		}
		v.DepartTimeS = d.rng.IntN(departWindowS)
		v.Speed = math.Max(15, origin.FreeFlowSpeed*(0.6+d.rng.Float64()*0.4))
		vehicles = append(vehicles, v)
	}
	return vehicles
}

func (d *DemandGenerator) buildVehicle(id string, origin *entities.Edge, route []string) *entities.Vehicle {
	length := d.routes.RouteLength(route)
	if length < minRouteM {
		return nil
	}
	return &entities.Vehicle{
		ID:               id,
		Route:            route,
		RouteCoordinates: d.routes.RoutePolyline(route, polylineStepM),
		RouteLengthM:     length,
	}
}
