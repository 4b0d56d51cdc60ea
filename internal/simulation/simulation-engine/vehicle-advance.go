package simulationengine

import (
	"math"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

const (
	// Progress is capped short of 1.0 so an extremely congested vehicle
	// still hands off on the next tick.
	progressCap = 0.95

	emissionIntervalS  = 10
	emissionBaseGPerKm = 120
)

// advance moves one vehicle by dt seconds of simulated time at
// simulated time t. Target speed combines the edge's canonical speed
// (construction-reduced where applicable), any matching real-time flow,
// and congestion feedback from current edge occupancy.
func (s *SimulationEngine) advance(v *entities.Vehicle, t, dt int, occupancy map[string]int) {
	if len(v.Route) == 0 {
		return
	}
	edge, ok := s.Graph.EdgeByID[v.Route[0]]
	if !ok {
		return
	}

	target := edge.Speed
	if fs, ok := s.flowSpeed[edge.ID]; ok && fs < target {
		target = fs
	}
	if u := utilization(occupancy[edge.ID], edge.Capacity); u > 0.7 {
		target *= math.Max(0.1, 1-(u-0.7)*0.5)
	}

	v.Speed += 0.2 * (target - v.Speed)
	if v.Speed < 0 {
		v.Speed = 0
	}
	if target > 0 && v.Speed < 5 {
		v.Speed = math.Max(5, target*0.3)
	}

	d := v.Speed * float64(dt) / 3.6
	remaining := edge.Length * (1 - v.CurrentEdgeProgress)

	if d >= remaining {
		v.DistanceTraveledM += remaining
		v.Route = v.Route[1:]
		if len(v.Route) == 0 {
			arrived := t
			v.ArrivalTimeS = &arrived
			v.CurrentEdgeProgress = 0
		} else if next, ok := s.Graph.EdgeByID[v.Route[0]]; ok && next.Length > 0 {
			carry := d - remaining
			v.CurrentEdgeProgress = math.Min(progressCap, carry/next.Length)
		} else {
			v.CurrentEdgeProgress = 0
		}
	} else {
		v.DistanceTraveledM += d
		v.CurrentEdgeProgress = math.Min(progressCap, v.CurrentEdgeProgress+d/edge.Length)
	}

	if t%emissionIntervalS < dt {
		v.EmissionsG += emissionFactor(v.Speed) * (v.Speed / 3600)
	}
}

// emissionFactor returns grams of CO2 per km at the given speed. Slow
// stop-and-go traffic and high-speed cruising both emit more than the
// base rate.
func emissionFactor(speed float64) float64 {
	factor := float64(emissionBaseGPerKm)
	switch {
	case speed < 20:
		factor *= 1.6
	case speed < 40:
		factor *= 1.2
	case speed > 80:
		factor *= 1.3
	}
	return factor
}

// utilization is active vehicles on the edge over its per-second
// service rate.
func utilization(count int, capacity float64) float64 {
	return float64(count) / math.Max(1, capacity/3600)
}
