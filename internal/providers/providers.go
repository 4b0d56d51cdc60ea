// Package providers fetches the external inputs of a simulation run:
// road topology, real-time traffic conditions and population figures.
// Every provider falls back to a deterministic estimate when its
// upstream is unavailable; none of them surfaces an error to callers.
package providers

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

type RoadNetworkProvider interface {
	FetchRoadNetwork(ctx context.Context, center orb.Point, radiusKm float64) *entities.NetworkData
}

type TrafficProvider interface {
	FetchTraffic(ctx context.Context, bbox orb.Bound) *entities.TrafficData
}

type PopulationProvider interface {
	FetchPopulation(ctx context.Context, bbox orb.Bound) *entities.PopulationData
}
