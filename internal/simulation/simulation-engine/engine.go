package simulationengine

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/urbanflow/traffic-sim/internal/geo"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

// ErrSimulationAborted is returned when the run is cancelled before the
// simulated duration elapses.
var ErrSimulationAborted = errors.New("simulation aborted")

const (
	congestionSampleS = 300
	progressLogS      = 600
	flowMatchRadiusM  = 1000
)

// EngineConfig carries the per-run knobs of the microsimulation loop.
type EngineConfig struct {
	LiveTickS      int
	LiveSampleSize int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{LiveTickS: 10, LiveSampleSize: 50}
}

// SimulationEngine advances all vehicles in discrete time steps. The
// loop is single-threaded and owns the vehicle collection and the
// mutable edge fields; nothing else may touch them while Run executes.
type SimulationEngine struct {
	Graph    *RoadGraph
	Traffic  *entities.TrafficData
	Vehicles []*entities.Vehicle
	Config   EngineConfig

	// OnSnapshot, when set, receives a live snapshot every LiveTickS of
	// simulated time. It must not block.
	OnSnapshot func(entities.LiveSnapshot)

	log       logrus.FieldLogger
	snapshots *SnapshotBuilder
	flowSpeed map[string]float64

	congestionSumKm float64
}

func NewSimulationEngine(graph *RoadGraph, traffic *entities.TrafficData, vehicles []*entities.Vehicle, cfg EngineConfig, log logrus.FieldLogger) *SimulationEngine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SimulationEngine{
		Graph:     graph,
		Traffic:   traffic,
		Vehicles:  vehicles,
		Config:    cfg,
		log:       log,
		snapshots: NewSnapshotBuilder(graph),
	}
}

// Run executes the loop for durationMinutes of simulated time. The
// step shrinks to 1 s whenever more than 100 vehicles are active.
// Cancellation is honored at the next tick boundary.
func (s *SimulationEngine) Run(ctx context.Context, durationMinutes int) error {
	s.prepareFlowIndex()

	endTime := durationMinutes * 60
	t := 0
	lastSample, lastSnapshot, lastLog := -1, -1, 0
	for t < endTime {
		if ctx.Err() != nil {
			return ErrSimulationAborted
		}

		occupancy := s.occupancy(t)
		active := 0
		for _, n := range occupancy {
			active += n
		}

		dt := 10
		if active > 100 {
			dt = 1
		}

		for _, v := range s.Vehicles {
			if v.Active(t) {
				s.advance(v, t, dt, occupancy)
			}
		}

		// The step size flips between 1 s and 10 s, so t is not always a
		// multiple of the periodic intervals; each action fires on the
		// first tick that falls into a new interval, once per interval
		// regardless.
		if k := t / congestionSampleS; k != lastSample {
			lastSample = k
			s.congestionSumKm += s.instantCongestionKm(occupancy)
		}
		if k := t / s.Config.LiveTickS; s.OnSnapshot != nil && k != lastSnapshot {
			lastSnapshot = k
			s.OnSnapshot(s.snapshots.Build(t, s.Vehicles, occupancy, s.Config.LiveSampleSize))
		}
		if k := t / progressLogS; k != lastLog {
			lastLog = k
			s.log.WithFields(logrus.Fields{
				"sim_time_s": t,
				"active":     active,
				"arrived":    s.arrivedCount(),
			}).Info("simulation progress")
		}

		t += dt
	}
	return nil
}

// occupancy counts active vehicles per current edge at time t.
func (s *SimulationEngine) occupancy(t int) map[string]int {
	occ := make(map[string]int)
	for _, v := range s.Vehicles {
		if v.Active(t) {
			occ[v.Route[0]]++
		}
	}
	return occ
}

func (s *SimulationEngine) arrivedCount() int {
	n := 0
	for _, v := range s.Vehicles {
		if v.ArrivalTimeS != nil {
			n++
		}
	}
	return n
}

// prepareFlowIndex resolves, once per run, the real-time flow speed
// constraining each edge: the slowest flow whose first coordinate lies
// within 1 km of the edge start.
func (s *SimulationEngine) prepareFlowIndex() {
	s.flowSpeed = make(map[string]float64)
	if s.Traffic == nil {
		return
	}
	for _, e := range s.Graph.Edges {
		for _, f := range s.Traffic.Flows {
			if len(f.Coordinates) == 0 {
				continue
			}
			if geo.Distance(e.Geometry[0], f.Coordinates[0]) <= flowMatchRadiusM {
				if cur, ok := s.flowSpeed[e.ID]; !ok || f.CurrentSpeed < cur {
					s.flowSpeed[e.ID] = f.CurrentSpeed
				}
			}
		}
	}
}

// instantCongestionKm sums the lengths of edges whose utilization
// exceeds 0.7, in kilometers.
func (s *SimulationEngine) instantCongestionKm(occupancy map[string]int) float64 {
	total := 0.0
	for _, e := range s.Graph.Edges {
		if utilization(occupancy[e.ID], e.Capacity) > 0.7 {
			total += e.Length
		}
	}
	return total / 1000
}

// TotalDistanceKm is the sum of distance traveled across all vehicles.
func (s *SimulationEngine) TotalDistanceKm() float64 {
	total := 0.0
	for _, v := range s.Vehicles {
		total += v.DistanceTraveledM
	}
	return total / 1000
}

// TotalEmissionsKg converts the per-vehicle gram accumulators to kg.
func (s *SimulationEngine) TotalEmissionsKg() float64 {
	total := 0.0
	for _, v := range s.Vehicles {
		total += v.EmissionsG
	}
	return total / 1000
}

// CongestionLengthKm averages the periodic congestion samples over the
// run: sum of samples divided by duration/5 minutes.
func (s *SimulationEngine) CongestionLengthKm(durationMinutes int) float64 {
	periods := float64(durationMinutes) / 5
	if periods <= 0 {
		return 0
	}
	return s.congestionSumKm / periods
}

// VehicleSample returns up to n per-vehicle summaries.
func (s *SimulationEngine) VehicleSample(n int) []entities.VehicleSummary {
	if n > len(s.Vehicles) {
		n = len(s.Vehicles)
	}
	out := make([]entities.VehicleSummary, 0, n)
	for _, v := range s.Vehicles[:n] {
		out = append(out, entities.VehicleSummary{
			ID:                v.ID,
			RouteEdges:        len(v.Route),
			DistanceTraveledM: v.DistanceTraveledM,
			EmissionsG:        v.EmissionsG,
			Arrived:           v.ArrivalTimeS != nil,
		})
	}
	return out
}
