package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	maxPackageCandidates = 20
	maxTripCandidates    = 12
	candidateWorkers     = 4
)

// Geocoder turns a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Point, error)
}

// Router computes a driving route between two points.
type Router interface {
	Route(ctx context.Context, from, to Point) (*Route, error)
}

type ListingSource interface {
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, int64, error)
}

type TripSource interface {
	ListByDriver(ctx context.Context, driverID string, limit int) ([]models.Trip, error)
	ListRecent(ctx context.Context, excludeDriverID string, limit int) ([]models.Trip, error)
}

type LocationSource interface {
	Get(ctx context.Context, tripID string) (*models.TripLocation, error)
}

const (
	ModePackages = "packages"
	ModeTrips    = "trips"
	ModeNone     = "none"
)

// MatchedPackage is a listing whose endpoints both lie near the trip route.
type MatchedPackage struct {
	Listing        models.Listing `json:"listing"`
	Point          Point          `json:"point"`
	DistanceFromKm float64        `json:"distance_from_km"`
	DistanceToKm   float64        `json:"distance_to_km"`
	EtaMinutes     *int           `json:"eta_minutes,omitempty"`
	EtaAt          *time.Time     `json:"eta_at,omitempty"`
}

// MatchedTrip is a trip whose route passes near both endpoints of a package.
type MatchedTrip struct {
	Trip       models.Trip          `json:"trip"`
	MapPoint   Point                `json:"map_point"`
	EtaMinutes *int                 `json:"eta_minutes,omitempty"`
	EtaAt      *time.Time           `json:"eta_at,omitempty"`
	Location   *models.TripLocation `json:"location,omitempty"`
}

// Result is what the map screen renders.
type Result struct {
	Mode             string           `json:"mode"`
	Region           Region           `json:"region"`
	Route            []Point          `json:"route,omitempty"`
	RouteDurationSec float64          `json:"route_duration_sec,omitempty"`
	PackagePoint     *Point           `json:"package_point,omitempty"`
	Packages         []MatchedPackage `json:"packages"`
	Trips            []MatchedTrip    `json:"trips"`
}

func emptyResult(mode string) *Result {
	return &Result{
		Mode:     mode,
		Region:   DefaultRegion,
		Packages: []MatchedPackage{},
		Trips:    []MatchedTrip{},
	}
}

type Engine struct {
	geocoder  Geocoder
	router    Router
	listings  ListingSource
	trips     TripSource
	locations LocationSource
}

func NewEngine(geocoder Geocoder, router Router, listings ListingSource, trips TripSource, locations LocationSource) *Engine {
	return &Engine{
		geocoder:  geocoder,
		router:    router,
		listings:  listings,
		trips:     trips,
		locations: locations,
	}
}

// ForUser matches around the user's most recent trip, or failing that their
// most recent active listing.
func (e *Engine) ForUser(ctx context.Context, userID string) (*Result, error) {
	trips, err := e.trips.ListByDriver(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(trips) > 0 {
		return e.MatchPackages(ctx, userID, &trips[0])
	}

	listings, _, err := e.listings.List(ctx, models.ListingFilter{
		ShipperID: userID,
		Status:    models.ListingActive,
		Limit:     1,
	})
	if err != nil {
		return nil, err
	}
	if len(listings) > 0 {
		return e.MatchTrips(ctx, userID, &listings[0])
	}
	return emptyResult(ModeNone), nil
}

// MatchPackages finds active listings of other shippers along the trip's route.
func (e *Engine) MatchPackages(ctx context.Context, userID string, trip *models.Trip) (*Result, error) {
	res := emptyResult(ModePackages)

	from, err := e.resolve(ctx, trip.OriginCity, trip.OriginLat, trip.OriginLng)
	if err != nil {
		logger.Log.WithError(err).WithField("trip_id", trip.ID).Debug("Trip origin not resolved")
		return res, nil
	}
	to, err := e.resolve(ctx, trip.DestinationCity, trip.DestinationLat, trip.DestinationLng)
	if err != nil {
		logger.Log.WithError(err).WithField("trip_id", trip.ID).Debug("Trip destination not resolved")
		return res, nil
	}

	route, err := e.router.Route(ctx, from, to)
	if err != nil {
		logger.Log.WithError(err).WithField("trip_id", trip.ID).Warn("Routing failed")
		route = &Route{}
	}
	res.Route = route.Line
	res.RouteDurationSec = route.DurationSec
	if len(route.Line) > 1 {
		res.Region = ComputeRegion(route.Line)
	} else {
		res.Region = ComputeRegion([]Point{from, to})
	}
	if len(route.Line) == 0 {
		return res, nil
	}

	candidates, _, err := e.listings.List(ctx, models.ListingFilter{
		ExcludeShipperID: userID,
		Status:           models.ListingActive,
		Limit:            maxPackageCandidates,
	})
	if err != nil {
		return nil, err
	}

	found := make([]*MatchedPackage, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(candidateWorkers)
	for i := range candidates {
		i := i
		l := candidates[i]
		g.Go(func() error {
			pFrom, err := e.resolve(gctx, l.OriginCity, l.OriginLat, l.OriginLng)
			if err != nil {
				logger.Log.WithError(err).WithField("listing_id", l.ID).Debug("Skipping listing")
				return nil
			}
			pTo, err := e.resolve(gctx, l.DestinationCity, l.DestinationLat, l.DestinationLng)
			if err != nil {
				logger.Log.WithError(err).WithField("listing_id", l.ID).Debug("Skipping listing")
				return nil
			}

			dFrom := DistanceToRouteKm(pFrom, route.Line)
			dTo := DistanceToRouteKm(pTo, route.Line)
			if !WithinMatchRadius(dFrom) || !WithinMatchRadius(dTo) {
				return nil
			}

			snapped := SnapToRoute(pFrom, route.Line)
			m := &MatchedPackage{
				Listing:        l,
				Point:          snapped,
				DistanceFromKm: dFrom,
				DistanceToKm:   dTo,
			}
			m.EtaMinutes, m.EtaAt = eta(route.Line, snapped, route.DurationSec, trip.DepartAt)
			found[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, m := range found {
		if m != nil {
			res.Packages = append(res.Packages, *m)
		}
	}
	return res, nil
}

// MatchTrips finds other drivers' trips whose route passes near both ends of the listing.
func (e *Engine) MatchTrips(ctx context.Context, userID string, listing *models.Listing) (*Result, error) {
	res := emptyResult(ModeTrips)

	pFrom, err := e.resolve(ctx, listing.OriginCity, listing.OriginLat, listing.OriginLng)
	if err != nil {
		logger.Log.WithError(err).WithField("listing_id", listing.ID).Debug("Listing origin not resolved")
		return res, nil
	}
	res.PackagePoint = &pFrom
	res.Region = ComputeRegion([]Point{pFrom})

	pTo, err := e.resolve(ctx, listing.DestinationCity, listing.DestinationLat, listing.DestinationLng)
	if err != nil {
		logger.Log.WithError(err).WithField("listing_id", listing.ID).Debug("Listing destination not resolved")
		return res, nil
	}

	candidates, err := e.trips.ListRecent(ctx, userID, maxTripCandidates)
	if err != nil {
		return nil, err
	}

	found := make([]*MatchedTrip, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(candidateWorkers)
	for i := range candidates {
		i := i
		t := candidates[i]
		g.Go(func() error {
			tFrom, err := e.resolve(gctx, t.OriginCity, t.OriginLat, t.OriginLng)
			if err != nil {
				logger.Log.WithError(err).WithField("trip_id", t.ID).Debug("Skipping trip")
				return nil
			}
			tTo, err := e.resolve(gctx, t.DestinationCity, t.DestinationLat, t.DestinationLng)
			if err != nil {
				logger.Log.WithError(err).WithField("trip_id", t.ID).Debug("Skipping trip")
				return nil
			}
			route, err := e.router.Route(gctx, tFrom, tTo)
			if err != nil {
				logger.Log.WithError(err).WithField("trip_id", t.ID).Debug("Skipping trip")
				return nil
			}

			if !WithinMatchRadius(DistanceToRouteKm(pFrom, route.Line)) || !WithinMatchRadius(DistanceToRouteKm(pTo, route.Line)) {
				return nil
			}

			m := &MatchedTrip{
				Trip:     t,
				MapPoint: Midpoint(route.Line, tFrom, tTo),
			}
			m.EtaMinutes, m.EtaAt = eta(route.Line, pFrom, route.DurationSec, t.DepartAt)

			loc, err := e.locations.Get(gctx, t.ID)
			switch {
			case err == nil:
				m.Location = loc
			case !errors.Is(err, repository.ErrNotFound):
				logger.Log.WithError(err).WithField("trip_id", t.ID).Debug("Trip location unavailable")
			}

			found[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	regionPoints := []Point{pFrom}
	for _, m := range found {
		if m != nil {
			res.Trips = append(res.Trips, *m)
			regionPoints = append(regionPoints, m.MapPoint)
		}
	}
	res.Region = ComputeRegion(regionPoints)
	return res, nil
}

// resolve prefers stored coordinates and geocodes the city otherwise.
func (e *Engine) resolve(ctx context.Context, city *string, lat, lng *float64) (Point, error) {
	label := strings.TrimSpace(models.StringValue(city))
	if lat != nil && lng != nil {
		return Point{Lat: *lat, Lng: *lng, Label: label}, nil
	}
	if label == "" {
		return Point{}, fmt.Errorf("no address or coordinates")
	}
	p, err := e.geocoder.Geocode(ctx, label)
	if err != nil {
		return Point{}, err
	}
	p.Label = label
	return p, nil
}

func eta(line []Point, target Point, durationSec float64, departAt *time.Time) (*int, *time.Time) {
	minutes, ok := EstimateMinutesAlongRoute(line, target, durationSec)
	if !ok {
		return nil, nil
	}
	if departAt == nil {
		return &minutes, nil
	}
	at := departAt.Add(time.Duration(minutes) * time.Minute)
	return &minutes, &at
}
