package handlers

import (
	"net/http"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/services"
	"github.com/gorilla/mux"
)

// ListingHandler serves the shipper listings.
type ListingHandler struct {
	Service *services.ListingService
}

func NewListingHandler(service *services.ListingService) *ListingHandler {
	return &ListingHandler{Service: service}
}

// CreateListingHandler creates a listing owned by the caller.
func (h *ListingHandler) CreateListingHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.CreateListingInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	listing, err := h.Service.Create(r.Context(), uid, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

// ListMyListingsHandler pages through the caller's own listings.
func (h *ListingHandler) ListMyListingsHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := models.ListingStatus(r.URL.Query().Get("status"))
	listings, total, err := h.Service.ListMine(r.Context(), uid, status, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": listings, "count": total})
}

// FeedHandler lists other shippers' listings.
func (h *ListingHandler) FeedHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := models.ListingStatus(r.URL.Query().Get("status"))
	listings, err := h.Service.Feed(r.Context(), uid, status, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": listings})
}

// MapHandler lists active listings around a point.
func (h *ListingHandler) MapHandler(w http.ResponseWriter, r *http.Request) {
	var q services.MapQuery
	var err error
	if q.Lat, err = queryFloat(r, "lat", true); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Lng, err = queryFloat(r, "lng", true); err != nil {
		writeError(w, r, err)
		return
	}
	if q.RadiusKm, err = queryFloat(r, "radius_km", false); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Limit, err = queryInt(r, "limit", 0); err != nil {
		writeError(w, r, err)
		return
	}

	listings, err := h.Service.Map(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": listings})
}

// GetListingHandler returns one listing.
func (h *ListingHandler) GetListingHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	listing, err := h.Service.Get(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// UpdateListingHandler applies a partial update.
func (h *ListingHandler) UpdateListingHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.UpdateListingInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	listing, err := h.Service.Update(r.Context(), mux.Vars(r)["id"], uid, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// DeleteListingHandler removes an unmatched listing.
func (h *ListingHandler) DeleteListingHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"], uid); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pageParams(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
