package handlers

import (
	"net/http"

	"github.com/colib/colib-backend/internal/services"
	"github.com/gorilla/mux"
)

// ProposalHandler serves driver offers and their acceptance.
type ProposalHandler struct {
	Service *services.ProposalService
}

func NewProposalHandler(service *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{Service: service}
}

// CreateProposalHandler lets a verified driver offer to carry a listing.
func (h *ProposalHandler) CreateProposalHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.CreateProposalInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	proposal, err := h.Service.Create(r.Context(), uid, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

// ListProposalsHandler lists proposals sent or received by the caller.
func (h *ProposalHandler) ListProposalsHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	proposals, err := h.Service.List(r.Context(), uid, r.URL.Query().Get("listing_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": proposals})
}

// GetProposalHandler returns one proposal.
func (h *ProposalHandler) GetProposalHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	proposal, err := h.Service.Get(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// AcceptProposalHandler turns the proposal into a shipment.
func (h *ProposalHandler) AcceptProposalHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Service.Accept(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// RejectProposalHandler declines the proposal.
func (h *ProposalHandler) RejectProposalHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	proposal, err := h.Service.Reject(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}
