package simulationengine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

func TestVehicleCount_MultiplierAndCap(t *testing.T) {
	g := testGraph(3)
	d := NewDemandGenerator(g, NewRouteBuilder(g, testRNG()), testRNG(), 500)

	pop := &entities.PopulationData{EstimatedVehicles: 200, PeakHourFactor: 0.5}

	assert.Equal(t, 100, d.VehicleCount(pop, entities.CongestionLow))
	assert.Equal(t, 110, d.VehicleCount(pop, entities.CongestionMedium))
	assert.Equal(t, 120, d.VehicleCount(pop, entities.CongestionHigh))
	assert.Equal(t, 130, d.VehicleCount(pop, entities.CongestionSevere))

	pop.EstimatedVehicles = 100000
	assert.Equal(t, 500, d.VehicleCount(pop, entities.CongestionSevere))
}

func TestGenerate_VehicleInvariants(t *testing.T) {
	g := testGraph(4)
	rng := testRNG()
	d := NewDemandGenerator(g, NewRouteBuilder(g, rng), rng, 500)

	pop := &entities.PopulationData{EstimatedVehicles: 80, PeakHourFactor: 0.5}
	vehicles := d.Generate(pop, entities.CongestionMedium)

	require.NotEmpty(t, vehicles)
	assert.LessOrEqual(t, len(vehicles), 44)

	for _, v := range vehicles {
		assert.True(t, strings.HasPrefix(v.ID, "vehicle_"))
		assert.GreaterOrEqual(t, v.RouteLengthM, float64(minRouteM))
		assert.GreaterOrEqual(t, v.Speed, 15.0)
		assert.GreaterOrEqual(t, v.DepartTimeS, 0)
		assert.Less(t, v.DepartTimeS, departWindowS)
		assert.NotEmpty(t, v.Route)
		assert.GreaterOrEqual(t, len(v.RouteCoordinates), 2)
		assert.Nil(t, v.ArrivalTimeS)
	}
}

func TestGenerate_EmptyGraph(t *testing.T) {
	g := NewRoadGraph(&entities.NetworkData{})
	rng := testRNG()
	d := NewDemandGenerator(g, NewRouteBuilder(g, rng), rng, 500)

	pop := &entities.PopulationData{EstimatedVehicles: 100, PeakHourFactor: 1}
	assert.Empty(t, d.Generate(pop, entities.CongestionLow))
}
