package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_KnownPair(t *testing.T) {
	tokyo := orb.Point{139.6917, 35.6895}
	shinjukuGyoen := orb.Point{139.7100, 35.6852}

	d := Distance(tokyo, shinjukuGyoen)

	// ~1.7 km between the two points.
	assert.InDelta(t, 1720, d, 100)
}

func TestBearing_Normalized(t *testing.T) {
	a := orb.Point{139.6917, 35.6895}

	north := Bearing(a, orb.Point{139.6917, 35.70})
	east := Bearing(a, orb.Point{139.71, 35.6895})
	west := Bearing(a, orb.Point{139.67, 35.6895})

	assert.InDelta(t, 0, north, 1)
	assert.InDelta(t, 90, east, 1)
	assert.InDelta(t, 270, west, 1)
}

func TestPointAlong_Endpoints(t *testing.T) {
	line := orb.LineString{{139.69, 35.68}, {139.70, 35.68}, {139.70, 35.69}}

	assert.Equal(t, line[0], PointAlong(line, 0))
	assert.Equal(t, line[0], PointAlong(line, -5))
	assert.Equal(t, line[2], PointAlong(line, 1e9))
}

func TestDensify_PreservesLength(t *testing.T) {
	line := orb.LineString{{139.69, 35.68}, {139.70, 35.68}, {139.70, 35.69}}
	orig := LineLength(line)

	for _, step := range []float64{5, 25, 100} {
		dense := Densify(line, step)
		require.GreaterOrEqual(t, len(dense), 2)
		assert.InDelta(t, orig, LineLength(dense), 1.0, "step %.0f", step)
	}
}

func TestDensify_EndpointsMatch(t *testing.T) {
	line := orb.LineString{{139.69, 35.68}, {139.705, 35.683}, {139.71, 35.69}}

	dense := Densify(line, 5)

	assert.Less(t, Distance(line[0], dense[0]), 1.0)
	assert.Less(t, Distance(line[len(line)-1], dense[len(dense)-1]), 1.0)
}

func TestDensify_ShortInputsUntouched(t *testing.T) {
	single := orb.LineString{{139.69, 35.68}}
	assert.Equal(t, single, Densify(single, 5))
}

func TestBearing_StableOverSmallAdvance(t *testing.T) {
	line := orb.LineString{{139.69, 35.68}, {139.71, 35.69}}
	total := LineLength(line)

	p := PointAlong(line, 0.4*total)
	q := PointAlong(line, 0.401*total)

	full := Bearing(line[0], line[1])
	local := Bearing(p, q)
	assert.Less(t, math.Abs(full-local), 1.0)
}

func TestBoundingBox_Margin(t *testing.T) {
	pts := []orb.Point{{139.6917, 35.6895}, {139.7017, 35.6995}}

	b := BoundingBox(pts, 0.01)

	assert.InDelta(t, 139.6817, b.Min[0], 1e-9)
	assert.InDelta(t, 35.7095, b.Max[1], 1e-9)
	assert.True(t, b.Contains(pts[0]))
	assert.True(t, b.Contains(pts[1]))
}

func TestCenter_Mean(t *testing.T) {
	pts := []orb.Point{{139.0, 35.0}, {141.0, 37.0}}

	c := Center(pts)

	assert.InDelta(t, 140.0, c[0], 1e-9)
	assert.InDelta(t, 36.0, c[1], 1e-9)
}

func TestBoundAreaKm2_Positive(t *testing.T) {
	b := BoundingBox([]orb.Point{{139.69, 35.68}}, 0.01)
	assert.Greater(t, BoundAreaKm2(b), 0.0)
}
