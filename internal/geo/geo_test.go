package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/colib/colib-backend/internal/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestNominatim(t *testing.T, h http.HandlerFunc) *NominatimClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewNominatimClient(srv.URL, "ColibTest/1.0", 2*time.Second)
	require.NoError(t, err)
	c.SetRateLimit(rate.NewLimiter(rate.Inf, 1))
	return c
}

func TestGeocodeCachesAndSendsHeaders(t *testing.T) {
	var calls int32
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Limoges", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "ColibTest/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "fr", r.Header.Get("Accept-Language"))
		w.Write([]byte(`[{"lat":"45.8336","lon":"1.2611","display_name":"Limoges"}]`))
	})

	ctx := context.Background()
	p, err := c.Geocode(ctx, "Limoges")
	require.NoError(t, err)
	assert.Equal(t, matching.Point{Lat: 45.8336, Lng: 1.2611}, p)

	_, err = c.Geocode(ctx, "  limoges ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGeocodeNoResult(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = c.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestSearch(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "6", r.URL.Query().Get("limit"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		w.Write([]byte(`[{"lat":"48.85","lon":"2.35","display_name":"Paris"},{"lat":"x","lon":"2"},{"lat":"44.8","lon":"-0.58"}]`))
	})

	places, err := c.Search(context.Background(), "Pa")
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Paris", places[0].DisplayName)
	assert.Equal(t, "44.8, -0.58", places[1].DisplayName)

	places, err = c.Search(context.Background(), "P")
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestReverseGeocode(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		w.Write([]byte(`{}`))
	})

	label, err := c.ReverseGeocode(context.Background(), 45.833612, 1.261123)
	require.NoError(t, err)
	assert.Equal(t, "45.83361, 1.26112", label)
}

func TestNominatimHTTPError(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Geocode(context.Background(), "Paris")
	assert.Error(t, err)
}

func TestOSRMRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/driving/2.350000,48.850000;1.260000,45.830000", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("overview"))
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":14400,"distance":390000,"geometry":{"coordinates":[[2.35,48.85],[1.9,47.3],[1.26,45.83]]}}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, 2*time.Second)
	route, err := c.Route(context.Background(), matching.Point{Lat: 48.85, Lng: 2.35}, matching.Point{Lat: 45.83, Lng: 1.26})
	require.NoError(t, err)
	assert.Equal(t, 14400.0, route.DurationSec)
	require.Len(t, route.Line, 3)
	assert.Equal(t, matching.Point{Lat: 47.3, Lng: 1.9}, route.Line[1])
}

func TestOSRMNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL, 2*time.Second).Route(context.Background(), matching.Point{}, matching.Point{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrNoRoute)
}
