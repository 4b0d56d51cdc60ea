package simulationengine

import (
	"fmt"
	"math/rand/v2"

	"github.com/paulmach/orb"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

// gridNetwork builds a size x size grid of intersections roughly 500 m
// apart around central Tokyo, with one directed road per direction
// between adjacent intersections.
func gridNetwork(size int) *entities.NetworkData {
	const (
		baseLng = 139.69
		baseLat = 35.68
		dLng    = 0.0055
		dLat    = 0.0045
	)

	point := func(r, c int) orb.Point {
		return orb.Point{baseLng + float64(c)*dLng, baseLat + float64(r)*dLat}
	}
	nodeID := func(r, c int) int64 {
		return int64(r*size + c)
	}

	var roads []entities.Road
	addRoad := func(r1, c1, r2, c2 int, class string) {
		id := fmt.Sprintf("road_%d_%d", nodeID(r1, c1), nodeID(r2, c2))
		roads = append(roads, entities.Road{
			ID:       id,
			NodeIDs:  []int64{nodeID(r1, c1), nodeID(r2, c2)},
			Tags:     map[string]string{"highway": class},
			Geometry: orb.LineString{point(r1, c1), point(r2, c2)},
		})
	}

	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			class := "residential"
			if r == 0 {
				class = "primary"
			}
			if c+1 < size {
				addRoad(r, c, r, c+1, class)
				addRoad(r, c+1, r, c, class)
			}
			if r+1 < size {
				addRoad(r, c, r+1, c, class)
				addRoad(r+1, c, r, c, class)
			}
		}
	}

	return &entities.NetworkData{
		Roads:  roads,
		Nodes:  size * size,
		Source: entities.SourceEstimate,
	}
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func testGraph(size int) *RoadGraph {
	return NewRoadGraph(gridNetwork(size))
}
