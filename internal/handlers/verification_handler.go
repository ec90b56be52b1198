package handlers

import (
	"net/http"

	"github.com/colib/colib-backend/internal/services"
	"github.com/gorilla/mux"
)

// VerificationHandler serves profile verification for users and admins.
type VerificationHandler struct {
	Service *services.VerificationService
}

func NewVerificationHandler(service *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{Service: service}
}

// GetMyVerificationHandler returns the caller's verification record.
func (h *VerificationHandler) GetMyVerificationHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	v, err := h.Service.Get(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SubmitVerificationHandler (re)submits the caller's documents for review.
func (h *VerificationHandler) SubmitVerificationHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.SubmitVerificationInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	v, err := h.Service.Submit(r.Context(), uid, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListPendingHandler is the admin review queue.
func (h *VerificationHandler) ListPendingHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.Service.ListPending(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

// ReviewHandler approves or rejects a pending verification.
func (h *VerificationHandler) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.ReviewInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	v, err := h.Service.Review(r.Context(), uid, mux.Vars(r)["user_id"], *input.Approve, input.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
