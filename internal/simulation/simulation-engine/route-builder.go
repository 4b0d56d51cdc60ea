package simulationengine

import (
	"math/rand/v2"

	"github.com/paulmach/orb"

	"github.com/urbanflow/traffic-sim/internal/geo"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

const (
	routeMinBaseM   = 4000
	routeMinSpreadM = 4000
	routeStepCap    = 200

	// Dead-end escapes jump to an edge at least this far away.
	escapeMinDistanceM = 1000
)

// RouteBuilder produces stochastic, length-targeted multi-edge routes.
// Not safe for concurrent use; each simulation run owns one instance
// together with its cache.
type RouteBuilder struct {
	graph *RoadGraph
	rng   *rand.Rand
	cache map[string][]string
}

func NewRouteBuilder(graph *RoadGraph, rng *rand.Rand) *RouteBuilder {
	return &RouteBuilder{
		graph: graph,
		rng:   rng,
		cache: make(map[string][]string),
	}
}

// BuildRoute walks the graph from origin toward a target cumulative
// length before closing at dest. The walk is a uniform random choice
// among unvisited outgoing edges; dead ends escape to a distant edge.
// A route that comes up short is retried once with the endpoints
// swapped.
func (b *RouteBuilder) BuildRoute(origin, dest *entities.Edge) []string {
	key := origin.ID + "->" + dest.ID
	if cached, ok := b.cache[key]; ok {
		return cached
	}

	route, length, target := b.walk(origin, dest)
	if length < target {
		route, _, _ = b.walk(dest, origin)
	}

	b.cache[key] = route
	return route
}

func (b *RouteBuilder) walk(origin, dest *entities.Edge) ([]string, float64, float64) {
	minLength := routeMinBaseM + b.rng.Float64()*routeMinSpreadM

	route := []string{origin.ID}
	visited := map[string]bool{origin.ID: true}
	cursor := origin.ToNode
	length := origin.Length
	last := origin

	for length < minLength && len(route) < routeStepCap {
		var candidates []*entities.Edge
		for _, e := range b.graph.OutgoingByNode[cursor] {
			if !visited[e.ID] {
				candidates = append(candidates, e)
			}
		}

		var next *entities.Edge
		if len(candidates) == 0 {
			next = b.DistantEdge(last, escapeMinDistanceM)
			if next == nil {
				break
			}
		} else {
			next = candidates[b.rng.IntN(len(candidates))]
		}

		route = append(route, next.ID)
		visited[next.ID] = true
		cursor = next.ToNode
		length += next.Length
		last = next
	}

	if cursor != dest.FromNode && !visited[dest.ID] {
		route = append(route, dest.ID)
		length += dest.Length
	}
	return route, length, minLength
}

// DistantEdge draws random edges until one starts at least minDistance
// meters from the reference edge's first geometry point. Retries are
// bounded at 3x the edge count; past that any distinct edge wins.
func (b *RouteBuilder) DistantEdge(from *entities.Edge, minDistance float64) *entities.Edge {
	n := len(b.graph.Edges)
	if n == 0 {
		return nil
	}
	if n == 1 {
		if b.graph.Edges[0].ID == from.ID {
			return nil
		}
		return b.graph.Edges[0]
	}

	origin := from.Geometry[0]
	for i := 0; i < 3*n; i++ {
		cand := b.graph.Edges[b.rng.IntN(n)]
		if cand.ID == from.ID {
			continue
		}
		if geo.Distance(origin, cand.Geometry[0]) >= minDistance {
			return cand
		}
	}
	for {
		cand := b.graph.Edges[b.rng.IntN(n)]
		if cand.ID != from.ID {
			return cand
		}
	}
}

// RouteLength sums the lengths of the edges on the route.
func (b *RouteBuilder) RouteLength(route []string) float64 {
	total := 0.0
	for _, id := range route {
		if e, ok := b.graph.EdgeByID[id]; ok {
			total += e.Length
		}
	}
	return total
}

// RoutePolyline concatenates the per-edge geometries into one densified
// polyline, dropping the first point of every edge after the first so
// joins don't duplicate.
func (b *RouteBuilder) RoutePolyline(route []string, stepM float64) orb.LineString {
	var line orb.LineString
	for i, id := range route {
		e, ok := b.graph.EdgeByID[id]
		if !ok {
			continue
		}
		geom := e.Geometry
		if i > 0 && len(geom) > 0 {
			geom = geom[1:]
		}
		line = append(line, geom...)
	}
	return geo.Densify(line, stepM)
}
