package simulationengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanflow/traffic-sim/internal/geo"
)

func TestBuildRoute_StartsAtOrigin(t *testing.T) {
	g := testGraph(4)
	b := NewRouteBuilder(g, testRNG())

	origin := g.Edges[0]
	dest := g.Edges[len(g.Edges)-1]

	route := b.BuildRoute(origin, dest)

	require.NotEmpty(t, route)
	assert.Equal(t, origin.ID, route[0])
	assert.LessOrEqual(t, len(route), routeStepCap+1)
	for _, id := range route {
		assert.Contains(t, g.EdgeByID, id)
	}
}

func TestBuildRoute_Cached(t *testing.T) {
	g := testGraph(4)
	b := NewRouteBuilder(g, testRNG())

	origin := g.Edges[0]
	dest := g.Edges[len(g.Edges)-1]

	first := b.BuildRoute(origin, dest)
	second := b.BuildRoute(origin, dest)

	assert.Equal(t, first, second)
}

func TestDistantEdge_RespectsMinimumDistance(t *testing.T) {
	g := testGraph(4)
	b := NewRouteBuilder(g, testRNG())

	origin := g.Edges[0]
	for i := 0; i < 20; i++ {
		e := b.DistantEdge(origin, 1000)
		require.NotNil(t, e)
		assert.NotEqual(t, origin.ID, e.ID)
		assert.GreaterOrEqual(t, geo.Distance(origin.Geometry[0], e.Geometry[0]), 1000.0)
	}
}

func TestDistantEdge_FallsBackWhenNothingIsFarEnough(t *testing.T) {
	// A 2x2 grid spans well under 2 km, so the distance filter can
	// never be satisfied and the bounded retry must fall back.
	g := testGraph(2)
	b := NewRouteBuilder(g, testRNG())

	origin := g.Edges[0]
	e := b.DistantEdge(origin, 1e6)

	require.NotNil(t, e)
	assert.NotEqual(t, origin.ID, e.ID)
}

func TestRoutePolyline_EndpointsMatchRoute(t *testing.T) {
	g := testGraph(4)
	b := NewRouteBuilder(g, testRNG())

	origin := g.Edges[0]
	dest := g.Edges[len(g.Edges)-1]
	route := b.BuildRoute(origin, dest)

	line := b.RoutePolyline(route, 5)
	require.GreaterOrEqual(t, len(line), 2)

	first := g.EdgeByID[route[0]].Geometry[0]
	lastGeom := g.EdgeByID[route[len(route)-1]].Geometry
	last := lastGeom[len(lastGeom)-1]

	assert.Less(t, geo.Distance(first, line[0]), 1.0)
	assert.Less(t, geo.Distance(last, line[len(line)-1]), 1.0)
}

func TestRouteLength_SumsEdges(t *testing.T) {
	g := testGraph(3)
	b := NewRouteBuilder(g, testRNG())

	e0, e1 := g.Edges[0], g.Edges[1]
	got := b.RouteLength([]string{e0.ID, e1.ID})

	assert.InDelta(t, e0.Length+e1.Length, got, 1e-9)
}
