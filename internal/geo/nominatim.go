// Package geo wraps the OpenStreetMap providers: Nominatim for geocoding and
// OSRM for driving routes.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/colib/colib-backend/internal/matching"
	"github.com/colib/colib-backend/pkg/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var ErrNoResult = errors.New("geocoding returned no result")

const (
	geocodeCacheSize = 1024
	searchLimit      = 6
)

// Place is one address suggestion.
type Place struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (p nominatimPlace) toPlace() (Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad longitude %q: %w", p.Lon, err)
	}
	name := p.DisplayName
	if name == "" {
		name = p.Lat + ", " + p.Lon
	}
	return Place{DisplayName: name, Lat: lat, Lng: lng}, nil
}

// NominatimClient geocodes addresses. Requests are throttled to the public
// instance's limit of one per second, identical concurrent lookups are merged
// and results are cached in memory.
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group
	cache      *lru.Cache[string, matching.Point]
}

func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) (*NominatimClient, error) {
	cache, err := lru.New[string, matching.Point](geocodeCacheSize)
	if err != nil {
		return nil, err
	}
	return &NominatimClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		cache:      cache,
	}, nil
}

// SetRateLimit replaces the request limiter.
func (c *NominatimClient) SetRateLimit(l *rate.Limiter) {
	c.limiter = l
}

// Geocode returns the coordinates of the best match for address.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (matching.Point, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if key == "" {
		return matching.Point{}, ErrNoResult
	}
	if p, ok := c.cache.Get(key); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		places, err := c.search(ctx, address, 1, false)
		if err != nil {
			return matching.Point{}, err
		}
		if len(places) == 0 {
			return matching.Point{}, ErrNoResult
		}
		p := matching.Point{Lat: places[0].Lat, Lng: places[0].Lng}
		c.cache.Add(key, p)
		return p, nil
	})
	if err != nil {
		return matching.Point{}, err
	}
	return v.(matching.Point), nil
}

// Search returns up to six address suggestions. Queries shorter than two
// characters return nothing.
func (c *NominatimClient) Search(ctx context.Context, query string) ([]Place, error) {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < 2 {
		return []Place{}, nil
	}
	return c.search(ctx, q, searchLimit, true)
}

// ReverseGeocode returns the display name of the address at lat/lng, or the
// formatted coordinates when Nominatim has none.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")

	var out struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.get(ctx, "/reverse", params, &out); err != nil {
		return "", err
	}
	if out.DisplayName == "" {
		return CoordinatesLabel(lat, lng), nil
	}
	return out.DisplayName, nil
}

// CoordinatesLabel formats a position the way addresses fall back to when unknown.
func CoordinatesLabel(lat, lng float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lng)
}

func (c *NominatimClient) search(ctx context.Context, q string, limit int, details bool) ([]Place, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	if details {
		params.Set("addressdetails", "1")
	}

	var raw []nominatimPlace
	if err := c.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		p, err := r.toPlace()
		if err != nil {
			logger.Log.WithError(err).Debug("Skipping malformed Nominatim result")
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

func (c *NominatimClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create Nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "fr")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim error: status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse Nominatim response: %w", err)
	}
	return nil
}
