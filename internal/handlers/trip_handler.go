package handlers

import (
	"net/http"

	"github.com/colib/colib-backend/internal/services"
	"github.com/gorilla/mux"
)

// TripHandler serves driver trips and their live location.
type TripHandler struct {
	Service *services.TripService
	Hub     *TrackingHub
}

func NewTripHandler(service *services.TripService, hub *TrackingHub) *TripHandler {
	return &TripHandler{Service: service, Hub: hub}
}

// CreateTripHandler creates a trip for a verified driver.
func (h *TripHandler) CreateTripHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.TripInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	trip, err := h.Service.Create(r.Context(), uid, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

// ListTripsHandler lists the caller's trips.
func (h *TripHandler) ListTripsHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	trips, err := h.Service.List(r.Context(), uid, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": trips})
}

// GetTripHandler returns one trip.
func (h *TripHandler) GetTripHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	trip, err := h.Service.Get(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// UpdateTripHandler applies a partial update.
func (h *TripHandler) UpdateTripHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.TripInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	trip, err := h.Service.Update(r.Context(), mux.Vars(r)["id"], uid, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// DeleteTripHandler removes a trip.
func (h *TripHandler) DeleteTripHandler(w http.ResponseWriter, r *http.Request) {
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

// UpdateLocationHandler records the driver's position and fans it out to watchers.
func (h *TripHandler) UpdateLocationHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.LocationInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	loc, err := h.Service.UpdateLocation(r.Context(), mux.Vars(r)["id"], uid, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Hub != nil {
		h.Hub.Broadcast(loc)
	}
	writeJSON(w, http.StatusOK, loc)
}

// GetLocationHandler returns the last known position.
func (h *TripHandler) GetLocationHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	loc, err := h.Service.GetLocation(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}
