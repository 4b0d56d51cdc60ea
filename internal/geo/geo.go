// Package geo wraps the great-circle primitives the simulation needs:
// distances, bearings, bounding boxes and polyline resampling. All
// coordinates are WGS84 (lng, lat) orb.Points.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b)
}

// Bearing returns the initial great-circle bearing from a to b in
// degrees, 0 = north, clockwise, normalized to [0, 360).
func Bearing(a, b orb.Point) float64 {
	deg := orbgeo.Bearing(a, b)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// LineLength returns the haversine length of the polyline in meters.
func LineLength(line orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += Distance(line[i-1], line[i])
	}
	return total
}

// PointAlong returns the point at dist meters along the polyline,
// interpolating linearly between vertices. Distances beyond either end
// clamp to the endpoints.
func PointAlong(line orb.LineString, dist float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if dist <= 0 || len(line) == 1 {
		return line[0]
	}
	walked := 0.0
	for i := 1; i < len(line); i++ {
		seg := Distance(line[i-1], line[i])
		if walked+seg >= dist && seg > 0 {
			f := (dist - walked) / seg
			return orb.Point{
				line[i-1][0] + (line[i][0]-line[i-1][0])*f,
				line[i-1][1] + (line[i][1]-line[i-1][1])*f,
			}
		}
		walked += seg
	}
	return line[len(line)-1]
}

// Densify resamples the polyline to a fixed step in meters. The interior
// vertices of the input are kept between the samples they fall between,
// so corners are not cut and the resampled length matches the input.
// Lines with fewer than two points are returned as-is.
func Densify(line orb.LineString, stepM float64) orb.LineString {
	if len(line) < 2 || stepM <= 0 {
		return line
	}
	total := LineLength(line)
	if total == 0 {
		return line
	}
	n := int(math.Ceil(total / stepM))
	out := make(orb.LineString, 0, n+len(line))
	next, reached := 1, 0.0
	for i := 0; i <= n; i++ {
		d := float64(i) * stepM
		if d > total {
			d = total
		}
		for next < len(line)-1 && reached+Distance(line[next-1], line[next]) < d {
			reached += Distance(line[next-1], line[next])
			out = append(out, line[next])
			next++
		}
		out = append(out, PointAlong(line, d))
	}
	return out
}

// BoundingBox returns the bound of the points expanded by margin
// degrees on every side.
func BoundingBox(points []orb.Point, margin float64) orb.Bound {
	b := orb.Bound{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	b.Min[0] -= margin
	b.Min[1] -= margin
	b.Max[0] += margin
	b.Max[1] += margin
	return b
}

// Center returns the mean lng/lat of the points.
func Center(points []orb.Point) orb.Point {
	var lng, lat float64
	for _, p := range points {
		lng += p[0]
		lat += p[1]
	}
	n := float64(len(points))
	return orb.Point{lng / n, lat / n}
}

// BoundAreaKm2 approximates the bound's area in square kilometers.
func BoundAreaKm2(b orb.Bound) float64 {
	w := Distance(orb.Point{b.Min[0], b.Min[1]}, orb.Point{b.Max[0], b.Min[1]})
	h := Distance(orb.Point{b.Min[0], b.Min[1]}, orb.Point{b.Min[0], b.Max[1]})
	return w * h / 1e6
}
