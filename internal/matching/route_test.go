package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func straightLine(n int) []Point {
	line := make([]Point, n)
	for i := range line {
		line[i] = Point{Lat: 45, Lng: 1 + float64(i)*0.01}
	}
	return line
}

func TestHaversineKm(t *testing.T) {
	paris := Point{Lat: 48.8566, Lng: 2.3522}
	lyon := Point{Lat: 45.7640, Lng: 4.8357}

	assert.InDelta(t, 391.5, HaversineKm(paris, lyon), 1.0)
	assert.Equal(t, 0.0, HaversineKm(paris, paris))
	assert.InDelta(t, HaversineKm(paris, lyon), HaversineKm(lyon, paris), 1e-9)
}

func TestDistanceToRouteKm(t *testing.T) {
	assert.True(t, math.IsInf(DistanceToRouteKm(Point{}, nil), 1))

	line := straightLine(10)
	assert.Equal(t, 0.0, DistanceToRouteKm(line[3], line))

	// one degree of latitude is about 111 km
	off := Point{Lat: 46, Lng: line[5].Lng}
	assert.InDelta(t, 111.2, DistanceToRouteKm(off, line), 0.5)
}

func TestDistanceToRouteSamplesLongLines(t *testing.T) {
	line := straightLine(800)
	// stride is 10, so vertex 5 is never inspected
	d := DistanceToRouteKm(line[5], line)
	assert.Greater(t, d, 0.0)
	assert.Less(t, d, 5.0)
}

func TestMatchRadiusBoundaryIsInclusive(t *testing.T) {
	assert.True(t, WithinMatchRadius(30))
	assert.True(t, WithinMatchRadius(29.999))
	assert.False(t, WithinMatchRadius(30.0001))

	line := straightLine(10)
	kmPerDegLat := earthRadiusKm * math.Pi / 180
	near := Point{Lat: 45 + 29.9/kmPerDegLat, Lng: line[4].Lng}
	far := Point{Lat: 45 + 30.1/kmPerDegLat, Lng: line[4].Lng}

	assert.True(t, WithinMatchRadius(DistanceToRouteKm(near, line)))
	assert.False(t, WithinMatchRadius(DistanceToRouteKm(far, line)))
}

func TestEstimateMinutesAlongStraightRoute(t *testing.T) {
	const n = 11
	const duration = 3600.0
	line := straightLine(n)

	for k := 0; k < n; k++ {
		got, ok := EstimateMinutesAlongRoute(line, line[k], duration)
		assert.True(t, ok)
		want := int(math.Round(duration * float64(k) / float64(n-1) / 60))
		assert.Equal(t, want, got, "index %d", k)
	}
}

func TestEstimateMinutesAlongRouteDegenerate(t *testing.T) {
	_, ok := EstimateMinutesAlongRoute(straightLine(1), Point{}, 600)
	assert.False(t, ok)

	_, ok = EstimateMinutesAlongRoute(straightLine(5), Point{}, 0)
	assert.False(t, ok)

	same := []Point{{Lat: 45, Lng: 1}, {Lat: 45, Lng: 1}}
	_, ok = EstimateMinutesAlongRoute(same, Point{Lat: 45, Lng: 1}, 600)
	assert.False(t, ok)
}

func TestSnapToRoute(t *testing.T) {
	line := straightLine(5)
	assert.Equal(t, line[2], SnapToRoute(Point{Lat: 45.001, Lng: 1.021}, line))

	p := Point{Lat: 1, Lng: 2}
	assert.Equal(t, p, SnapToRoute(p, nil))
}

func TestComputeRegion(t *testing.T) {
	assert.Equal(t, DefaultRegion, ComputeRegion(nil))

	r := ComputeRegion([]Point{{Lat: 48, Lng: 2}, {Lat: 46, Lng: 1.9}})
	assert.InDelta(t, 47, r.Latitude, 1e-9)
	assert.InDelta(t, 1.95, r.Longitude, 1e-9)
	assert.InDelta(t, 3, r.LatitudeDelta, 1e-9)
	assert.InDelta(t, 0.5, r.LongitudeDelta, 1e-9)
}

func TestMidpoint(t *testing.T) {
	line := straightLine(5)
	assert.Equal(t, line[2], Midpoint(line, Point{}, Point{}))
	assert.Equal(t, Point{Lat: 1, Lng: 2}, Midpoint(nil, Point{Lat: 0, Lng: 0}, Point{Lat: 2, Lng: 4}))
}
