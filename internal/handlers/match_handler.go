package handlers

import (
	"context"
	"net/http"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/geo"
	"github.com/colib/colib-backend/internal/matching"
	"github.com/colib/colib-backend/pkg/logger"
)

// Matcher computes the map matches for a user.
type Matcher interface {
	ForUser(ctx context.Context, userID string) (*matching.Result, error)
}

// PlaceFinder backs the address autocomplete and the reverse lookup.
type PlaceFinder interface {
	Search(ctx context.Context, query string) ([]geo.Place, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// MatchHandler serves route matching and address lookups.
type MatchHandler struct {
	Matcher Matcher
	Places  PlaceFinder
}

func NewMatchHandler(matcher Matcher, places PlaceFinder) *MatchHandler {
	return &MatchHandler{Matcher: matcher, Places: places}
}

// MatchesHandler returns packages along the caller's trip, or trips passing
// by the caller's package.
func (h *MatchHandler) MatchesHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Matcher.ForUser(r.Context(), uid)
	if err != nil {
		writeError(w, r, apperrors.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchPlacesHandler suggests addresses for the q parameter.
func (h *MatchHandler) SearchPlacesHandler(w http.ResponseWriter, r *http.Request) {
	places, err := h.Places.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		logger.Log.WithError(err).Warn("Address search failed")
		writeError(w, r, apperrors.New(apperrors.KindUnavailable, "Address search unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": places})
}

// ReverseGeocodeHandler names the address at lat/lng. Provider failures fall
// back to the formatted coordinates.
func (h *MatchHandler) ReverseGeocodeHandler(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lng, err := queryFloat(r, "lng", true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	label, err := h.Places.ReverseGeocode(r.Context(), lat, lng)
	if err != nil {
		logger.Log.WithError(err).Debug("Reverse geocoding failed")
		label = geo.CoordinatesLabel(lat, lng)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"label": label, "lat": lat, "lng": lng})
}
