// Package matching pairs packages with trips whose driving route passes near
// both package endpoints, and estimates when the driver reaches the pickup.
package matching

import "math"

// MatchRadiusKm is the largest distance, inclusive, between a package
// endpoint and a trip route for the two to match.
const MatchRadiusKm = 30.0

const earthRadiusKm = 6371.0

// maxRouteSamples bounds how many polyline vertices DistanceToRouteKm inspects.
const maxRouteSamples = 80

type Point struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

// Region is a map viewport: a center and the span shown around it.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

// DefaultRegion frames metropolitan France.
var DefaultRegion = Region{Latitude: 46.6, Longitude: 2.4, LatitudeDelta: 8, LongitudeDelta: 8}

// Route is a driving route as returned by the routing provider.
type Route struct {
	Line        []Point
	DurationSec float64
}

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b Point) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusKm * 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceToRouteKm approximates the distance from p to the closest point of
// line by sampling at most about 80 vertices. It is +Inf for an empty line.
func DistanceToRouteKm(p Point, line []Point) float64 {
	best := math.Inf(1)
	if len(line) == 0 {
		return best
	}
	step := len(line) / maxRouteSamples
	if step < 1 {
		step = 1
	}
	for i := 0; i < len(line); i += step {
		if d := HaversineKm(p, line[i]); d < best {
			best = d
		}
	}
	return best
}

// WithinMatchRadius reports whether km is inside the match radius.
func WithinMatchRadius(km float64) bool {
	return km <= MatchRadiusKm
}

func sqDeg(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}

func nearestIndex(p Point, line []Point) int {
	best, bestDist := 0, math.Inf(1)
	for i, r := range line {
		if d := sqDeg(r, p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// SnapToRoute returns the polyline vertex nearest to p, or p itself for an empty line.
func SnapToRoute(p Point, line []Point) Point {
	if len(line) == 0 {
		return p
	}
	return line[nearestIndex(p, line)]
}

// EstimateMinutesAlongRoute estimates how many minutes into the route the
// vertex nearest target is reached, assuming constant speed along the
// polyline. ok is false when the line has fewer than two points, the duration
// is zero, or the line has zero length.
func EstimateMinutesAlongRoute(line []Point, target Point, durationSec float64) (minutes int, ok bool) {
	if len(line) < 2 || durationSec == 0 {
		return 0, false
	}
	k := nearestIndex(target, line)

	var total, partial float64
	for i := 1; i < len(line); i++ {
		seg := math.Hypot(line[i].Lat-line[i-1].Lat, line[i].Lng-line[i-1].Lng)
		total += seg
		if i <= k {
			partial += seg
		}
	}
	if total == 0 {
		return 0, false
	}

	ratio := math.Min(1, math.Max(0, partial/total))
	return int(math.Round(durationSec * ratio / 60)), true
}

// ComputeRegion frames points with a 50% margin and a minimum span of half a degree.
func ComputeRegion(points []Point) Region {
	if len(points) == 0 {
		return DefaultRegion
	}
	latMin, latMax := points[0].Lat, points[0].Lat
	lngMin, lngMax := points[0].Lng, points[0].Lng
	for _, p := range points[1:] {
		latMin = math.Min(latMin, p.Lat)
		latMax = math.Max(latMax, p.Lat)
		lngMin = math.Min(lngMin, p.Lng)
		lngMax = math.Max(lngMax, p.Lng)
	}
	return Region{
		Latitude:       (latMin + latMax) / 2,
		Longitude:      (lngMin + lngMax) / 2,
		LatitudeDelta:  math.Max(0.5, (latMax-latMin)*1.5),
		LongitudeDelta: math.Max(0.5, (lngMax-lngMin)*1.5),
	}
}

// Midpoint returns the middle vertex of line, or the midpoint of from and to
// when the line is empty.
func Midpoint(line []Point, from, to Point) Point {
	if len(line) > 0 {
		return line[len(line)/2]
	}
	return Point{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2}
}
