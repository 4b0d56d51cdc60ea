package simulationengine

import (
	"strconv"

	"github.com/urbanflow/traffic-sim/internal/geo"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

// Free-flow speed (km/h) and base hourly capacity per highway class.
var (
	classSpeed = map[string]float64{
		"motorway":     110,
		"trunk":        90,
		"primary":      70,
		"secondary":    60,
		"tertiary":     50,
		"residential":  30,
		"unclassified": 40,
	}
	classCapacity = map[string]float64{
		"motorway":     2000,
		"trunk":        1500,
		"primary":      1200,
		"secondary":    800,
		"tertiary":     600,
		"residential":  400,
		"unclassified": 300,
	}
	excludedClasses = map[string]bool{
		"footway":  true,
		"cycleway": true,
		"path":     true,
		"steps":    true,
		"service":  true,
	}
)

const (
	defaultSpeed    = 40
	defaultCapacity = 300
)

// RoadGraph is the directed multigraph the simulation runs on.
// Immutable after construction except for Edge.Speed/Edge.Capacity,
// which only the marker impact applier writes.
type RoadGraph struct {
	EdgeByID       map[string]*entities.Edge
	OutgoingByNode map[int64][]*entities.Edge
	Edges          []*entities.Edge

	RoadsCount int
	NodesCount int
}

// NewRoadGraph ingests raw roads into graph edges. Roads with fewer
// than two geometry points or an excluded highway class are skipped.
func NewRoadGraph(network *entities.NetworkData) *RoadGraph {
	g := &RoadGraph{
		EdgeByID:       make(map[string]*entities.Edge),
		OutgoingByNode: make(map[int64][]*entities.Edge),
	}

	nodes := make(map[int64]bool)
	for _, road := range network.Roads {
		if len(road.Geometry) < 2 {
			continue
		}
		class := road.Tags["highway"]
		if excludedClasses[class] {
			continue
		}

		length := geo.LineLength(road.Geometry)
		if length <= 0 {
			continue
		}

		speed, ok := classSpeed[class]
		if !ok {
			speed = defaultSpeed
		}
		baseCap, ok := classCapacity[class]
		if !ok {
			baseCap = defaultCapacity
		}
		lanes := parseLanes(road.Tags["lanes"])

		var from, to int64
		if len(road.NodeIDs) > 0 {
			from = road.NodeIDs[0]
			to = road.NodeIDs[len(road.NodeIDs)-1]
		}

		edge := &entities.Edge{
			ID:            road.ID,
			FromNode:      from,
			ToNode:        to,
			Lanes:         lanes,
			FreeFlowSpeed: speed,
			Speed:         speed,
			Length:        length,
			Capacity:      baseCap * float64(lanes),
			Geometry:      road.Geometry,
		}

		g.EdgeByID[edge.ID] = edge
		g.OutgoingByNode[edge.FromNode] = append(g.OutgoingByNode[edge.FromNode], edge)
		g.Edges = append(g.Edges, edge)
		nodes[from] = true
		nodes[to] = true
	}

	g.RoadsCount = len(g.Edges)
	g.NodesCount = len(nodes)
	if network.Nodes > g.NodesCount {
		g.NodesCount = network.Nodes
	}
	return g
}

func parseLanes(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
