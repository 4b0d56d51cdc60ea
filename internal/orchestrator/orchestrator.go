// Package orchestrator wires providers, graph construction, marker
// impacts, demand and the microsimulation into a single run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/urbanflow/traffic-sim/internal/geo"
	"github.com/urbanflow/traffic-sim/internal/providers"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
	simulationengine "github.com/urbanflow/traffic-sim/internal/simulation/simulation-engine"
	"github.com/urbanflow/traffic-sim/internal/stream"
)

var (
	ErrEmptyInput = errors.New("no markers supplied")
	ErrGraphEmpty = errors.New("road graph has no edges")
)

const bboxMarginDeg = 0.01

type Options struct {
	MaxVehicles    int
	LiveSampleSize int
	LiveTickS      int
	Seed           int64
}

func DefaultOptions() Options {
	return Options{MaxVehicles: 500, LiveSampleSize: 50, LiveTickS: 10}
}

type Orchestrator struct {
	Roads      providers.RoadNetworkProvider
	Traffic    providers.TrafficProvider
	Population providers.PopulationProvider
	Log        logrus.FieldLogger
	Opts       Options
}

func New(roads providers.RoadNetworkProvider, traffic providers.TrafficProvider, population providers.PopulationProvider, log logrus.FieldLogger, opts Options) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{Roads: roads, Traffic: traffic, Population: population, Log: log, Opts: opts}
}

// Run executes a full simulation for the markers. Live snapshots and
// progress go to hub when one is attached; hub termination stays with
// the caller. Provider failures degrade to deterministic data either
// way. A fatal error (empty graph, internal panic) degrades to the
// closed-form estimator only on synchronous runs; with a hub attached
// it is returned so the stream terminates with an error frame instead
// of estimator metrics dressed up as a completed run.
func (o *Orchestrator) Run(ctx context.Context, markers []entities.Marker, durationMin int, radiusKm float64, hub *stream.Hub) (*entities.FinalMetrics, error) {
	if len(markers) == 0 {
		return nil, ErrEmptyInput
	}

	seed := o.Opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)+1))

	status := func(msg string) {
		if hub != nil {
			hub.Status(msg)
		}
	}

	metrics, err := o.simulate(ctx, markers, durationMin, radiusKm, rng, hub, status)
	if err != nil {
		if errors.Is(err, simulationengine.ErrSimulationAborted) || ctx.Err() != nil {
			return nil, simulationengine.ErrSimulationAborted
		}
		if hub != nil {
			return nil, err
		}
		o.Log.WithError(err).Warn("simulation failed, using closed-form estimator")
		return o.Estimate(markers, rng), nil
	}
	return metrics, nil
}

func (o *Orchestrator) simulate(ctx context.Context, markers []entities.Marker, durationMin int, radiusKm float64, rng *rand.Rand, hub *stream.Hub, status func(string)) (metrics *entities.FinalMetrics, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simulation panic: %v", r)
		}
	}()

	points := make([]orb.Point, len(markers))
	for i, m := range markers {
		points[i] = m.Coordinates
	}
	bbox := geo.BoundingBox(points, bboxMarginDeg)
	center := geo.Center(points)

	status("Fetching road network, traffic and population data")

	var (
		network    *entities.NetworkData
		traffic    *entities.TrafficData
		population *entities.PopulationData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		network = o.Roads.FetchRoadNetwork(gctx, center, radiusKm)
		return nil
	})
	g.Go(func() error {
		traffic = o.Traffic.FetchTraffic(gctx, bbox)
		return nil
	})
	g.Go(func() error {
		population = o.Population.FetchPopulation(gctx, bbox)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, simulationengine.ErrSimulationAborted
	}

	if network.Source != entities.SourcePrimary {
		status("road network unavailable upstream, using fallback topology")
	}

	status("Building road graph")
	graph := simulationengine.NewRoadGraph(network)
	if len(graph.Edges) == 0 {
		return nil, ErrGraphEmpty
	}
	o.Log.WithFields(logrus.Fields{
		"roads": graph.RoadsCount,
		"nodes": graph.NodesCount,
	}).Info("road graph built")

	routes := simulationengine.NewRouteBuilder(graph, rng)

	status("Applying marker impacts")
	applier := simulationengine.NewImpactApplier(graph, routes, rng)
	extra := applier.Apply(markers, population.Density)

	status("Generating traffic demand")
	demand := simulationengine.NewDemandGenerator(graph, routes, rng, o.Opts.MaxVehicles)
	vehicles := demand.Generate(population, traffic.CongestionLevel)
	vehicles = append(vehicles, extra...)
	o.Log.WithField("vehicles", len(vehicles)).Info("demand generated")

	status(fmt.Sprintf("Simulating %d vehicles for %d minutes", len(vehicles), durationMin))
	engineCfg := simulationengine.EngineConfig{
		LiveTickS:      o.Opts.LiveTickS,
		LiveSampleSize: o.Opts.LiveSampleSize,
	}
	engine := simulationengine.NewSimulationEngine(graph, traffic, vehicles, engineCfg, o.Log)
	if hub != nil {
		engine.OnSnapshot = func(snap entities.LiveSnapshot) {
			hub.Live("simulation update", snap)
		}
	}
	if err := engine.Run(ctx, durationMin); err != nil {
		return nil, err
	}

	metrics = &entities.FinalMetrics{
		DrivingDistanceKm:  vary(rng, engine.TotalDistanceKm()),
		CongestionLengthKm: vary(rng, engine.CongestionLengthKm(durationMin)),
		CO2EmissionsKg:     vary(rng, engine.TotalEmissionsKg()),
		RoadsCount:         graph.RoadsCount,
		NodesCount:         graph.NodesCount,
		IncidentsCount:     len(traffic.Incidents),
		AffectedEdges:      applier.AffectedEdges(),
		VehicleSample:      engine.VehicleSample(5),
		ConstructionLog:    append([]entities.ConstructionImpact{}, applier.Log...),
		Population: entities.PopulationSummary{
			Total:             population.Total,
			Density:           population.Density,
			EstimatedVehicles: population.EstimatedVehicles,
			Source:            population.Source,
		},
	}
	metrics.Format()
	return metrics, nil
}

// Estimate is the closed-form fallback used when simulation cannot
// run: a fixed baseline plus a per-marker increment.
func (o *Orchestrator) Estimate(markers []entities.Marker, rng *rand.Rand) *entities.FinalMetrics {
	distance, congestion, co2 := 385.0, 0.8, 72.0
	for _, m := range markers {
		switch m.Type {
		case entities.MarkerConstruction:
			distance += 15
			congestion += 0.8
			co2 += 12
		case entities.MarkerFacility:
			distance += 8
			congestion += 0.3
			co2 += 6
		}
	}

	metrics := &entities.FinalMetrics{
		DrivingDistanceKm:  vary(rng, distance),
		CongestionLengthKm: vary(rng, congestion),
		CO2EmissionsKg:     vary(rng, co2),
		VehicleSample:      []entities.VehicleSummary{},
		ConstructionLog:    []entities.ConstructionImpact{},
	}
	metrics.Format()
	return metrics
}

// vary applies the ±5% uniform noise the report carries to avoid
// spurious precision.
func vary(rng *rand.Rand, v float64) float64 {
	return v * (0.95 + rng.Float64()*0.1)
}
