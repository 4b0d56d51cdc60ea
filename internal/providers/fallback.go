package providers

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/fogleman/delaunay"
	"github.com/paulmach/orb"

	"github.com/urbanflow/traffic-sim/internal/geo"
	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

const syntheticNodeCount = 150

// SyntheticNetwork generates a plausible road network inside the
// square that bounds the requested circle by Delaunay-triangulating
// seeded random intersections. The seed derives from the rounded center, so repeated
// calls for the same area return the same network.
func SyntheticNetwork(center orb.Point, radiusKm float64) *entities.NetworkData {
	seed := uint64(int64(math.Round(center[1]*1e4))*100003 + int64(math.Round(center[0]*1e4)))
	rng := rand.New(rand.NewPCG(seed, seed))

	dLat := radiusKm / 111.32
	cos := math.Cos(center[1] * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	dLng := radiusKm / (111.32 * cos)

	points := make([]delaunay.Point, syntheticNodeCount)
	coords := make([]orb.Point, syntheticNodeCount)
	for i := range points {
		lng := center[0] + (rng.Float64()*2-1)*dLng
		lat := center[1] + (rng.Float64()*2-1)*dLat
		points[i] = delaunay.Point{X: lng, Y: lat}
		coords[i] = orb.Point{lng, lat}
	}

	tri, err := delaunay.Triangulate(points)
	if err != nil {
		return &entities.NetworkData{Source: entities.SourceEstimate}
	}

	type pair struct{ a, b int }
	seen := make(map[pair]bool)
	addPair := func(a, b int) pair {
		if a > b {
			a, b = b, a
		}
		return pair{a, b}
	}

	var roads []entities.Road
	emit := func(a, b int) {
		length := geo.Distance(coords[a], coords[b])
		class := "residential"
		switch {
		case length > 1200:
			class = "primary"
		case length > 600:
			class = "secondary"
		}
		roads = append(roads,
			entities.Road{
				ID:       fmt.Sprintf("syn_%d_%d", a, b),
				NodeIDs:  []int64{int64(a), int64(b)},
				Tags:     map[string]string{"highway": class},
				Geometry: orb.LineString{coords[a], coords[b]},
			},
			entities.Road{
				ID:       fmt.Sprintf("syn_%d_%d", b, a),
				NodeIDs:  []int64{int64(b), int64(a)},
				Tags:     map[string]string{"highway": class},
				Geometry: orb.LineString{coords[b], coords[a]},
			},
		)
	}

	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		a, b, c := tri.Triangles[i], tri.Triangles[i+1], tri.Triangles[i+2]
		for _, p := range []pair{addPair(a, b), addPair(b, c), addPair(c, a)} {
			if !seen[p] {
				seen[p] = true
				emit(p.a, p.b)
			}
		}
	}

	return &entities.NetworkData{
		Roads:  roads,
		Nodes:  syntheticNodeCount,
		Source: entities.SourceEstimate,
	}
}
