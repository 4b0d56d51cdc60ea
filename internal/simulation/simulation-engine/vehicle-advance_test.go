package simulationengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

func singleVehicle(g *RoadGraph, route []string, speed float64) *entities.Vehicle {
	b := NewRouteBuilder(g, testRNG())
	return &entities.Vehicle{
		ID:               "v1",
		Route:            route,
		RouteCoordinates: b.RoutePolyline(route, 5),
		RouteLengthM:     b.RouteLength(route),
		Speed:            speed,
	}
}

func newTestEngine(g *RoadGraph, vehicles ...*entities.Vehicle) *SimulationEngine {
	traffic := &entities.TrafficData{CongestionLevel: entities.CongestionLow}
	e := NewSimulationEngine(g, traffic, vehicles, DefaultEngineConfig(), nil)
	e.prepareFlowIndex()
	return e
}

func TestAdvance_PartialProgress(t *testing.T) {
	g := testGraph(3)
	edge := g.Edges[0]
	v := singleVehicle(g, []string{edge.ID}, edge.Speed)
	s := newTestEngine(g, v)

	s.advance(v, 0, 1, map[string]int{})

	assert.Greater(t, v.CurrentEdgeProgress, 0.0)
	assert.LessOrEqual(t, v.CurrentEdgeProgress, progressCap)
	assert.Greater(t, v.DistanceTraveledM, 0.0)
	assert.Nil(t, v.ArrivalTimeS)
}

func TestAdvance_ArrivalOnLastEdge(t *testing.T) {
	g := testGraph(3)
	edge := g.Edges[0]
	v := singleVehicle(g, []string{edge.ID}, edge.Speed)
	v.CurrentEdgeProgress = 0.95
	s := newTestEngine(g, v)

	// 10 s at 70 km/h (primary edge) covers ~194 m, far more than the
	// ~25 m (5%) remaining.
	s.advance(v, 100, 10, map[string]int{})

	require.NotNil(t, v.ArrivalTimeS)
	assert.Equal(t, 100, *v.ArrivalTimeS)
	assert.Empty(t, v.Route)
	assert.InDelta(t, edge.Length*0.05, v.DistanceTraveledM, 1e-6)
}

func TestAdvance_EdgeHandoffCarriesProgress(t *testing.T) {
	g := testGraph(3)
	// Two consecutive edges out of node 0: east then east again.
	route := []string{"road_0_1", "road_1_2"}
	require.Contains(t, g.EdgeByID, route[0])
	require.Contains(t, g.EdgeByID, route[1])

	v := singleVehicle(g, route, 60)
	v.CurrentEdgeProgress = 0.9
	s := newTestEngine(g, v)

	s.advance(v, 0, 10, map[string]int{})

	assert.Equal(t, []string{"road_1_2"}, v.Route)
	assert.Greater(t, v.CurrentEdgeProgress, 0.0)
	assert.LessOrEqual(t, v.CurrentEdgeProgress, progressCap)
	assert.Nil(t, v.ArrivalTimeS)
}

func TestAdvance_CongestionFeedbackSlowsTarget(t *testing.T) {
	g := testGraph(3)
	edge := g.Edges[0]

	free := singleVehicle(g, []string{edge.ID}, edge.Speed)
	jammed := singleVehicle(g, []string{edge.ID}, edge.Speed)

	s := newTestEngine(g, free, jammed)

	s.advance(free, 1, 1, map[string]int{})
	s.advance(jammed, 1, 1, map[string]int{edge.ID: 50})

	assert.Less(t, jammed.Speed, free.Speed)
}

func TestAdvance_AntiStall(t *testing.T) {
	g := testGraph(3)
	edge := g.Edges[0]
	v := singleVehicle(g, []string{edge.ID}, 0)
	s := newTestEngine(g, v)

	s.advance(v, 1, 1, map[string]int{})

	assert.GreaterOrEqual(t, v.Speed, 5.0)
}

func TestAdvance_EmissionsAccumulateOnInterval(t *testing.T) {
	g := testGraph(3)
	edge := g.Edges[0]
	v := singleVehicle(g, []string{edge.ID}, edge.Speed)
	s := newTestEngine(g, v)

	s.advance(v, 5, 1, map[string]int{})
	assert.Zero(t, v.EmissionsG)

	s.advance(v, 10, 1, map[string]int{})
	assert.Greater(t, v.EmissionsG, 0.0)
}

func TestEmissionFactor_Bands(t *testing.T) {
	assert.Equal(t, 192.0, emissionFactor(10))
	assert.Equal(t, 144.0, emissionFactor(30))
	assert.Equal(t, 120.0, emissionFactor(60))
	assert.Equal(t, 156.0, emissionFactor(100))
}
