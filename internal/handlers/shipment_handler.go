package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/services"
	"github.com/gorilla/mux"
)

const maxProofSize = 10 << 20

var proofExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ShipmentHandler serves shipment tracking, status changes and proofs.
type ShipmentHandler struct {
	Service *services.ShipmentService
}

func NewShipmentHandler(service *services.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{Service: service}
}

// ListShipmentsHandler lists the caller's shipments.
func (h *ShipmentHandler) ListShipmentsHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	shipments, err := h.Service.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": shipments})
}

// GetShipmentHandler returns one shipment.
func (h *ShipmentHandler) GetShipmentHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	shipment, err := h.Service.Get(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// ListEventsHandler returns the shipment history.
func (h *ShipmentHandler) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	evts, err := h.Service.ListEvents(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": evts})
}

// ListProofsHandler returns the shipment's proof photos.
func (h *ShipmentHandler) ListProofsHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	proofs, err := h.Service.ListProofs(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": proofs})
}

// UpdateStatusHandler moves the shipment to a new status.
func (h *ShipmentHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.UpdateStatusInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	shipment, err := h.Service.UpdateStatus(r.Context(), mux.Vars(r)["id"], uid, input.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// AddProofHandler records a proof already stored by the client.
func (h *ShipmentHandler) AddProofHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input services.AddProofInput
	if err := decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	proof, err := h.Service.AddProof(r.Context(), mux.Vars(r)["id"], uid, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, proof)
}

// UploadProofHandler accepts a JPEG or PNG photo (10 MB max) as multipart
// field "file" with the proof kind in field "type".
func (h *ShipmentHandler) UploadProofHandler(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProofSize+1<<20)
	if err := r.ParseMultipartForm(maxProofSize); err != nil {
		writeError(w, r, apperrors.Validation("File too big or invalid format", nil))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperrors.Validation("Missing file in request", nil))
		return
	}
	defer file.Close()

	if header.Size > maxProofSize {
		writeError(w, r, apperrors.Validation("File too big or invalid format", nil))
		return
	}
	contentType := header.Header.Get("Content-Type")
	ext, ok := proofExtensions[contentType]
	if !ok {
		writeError(w, r, apperrors.Validation("Only JPEG and PNG images are allowed", nil))
		return
	}
	if given := strings.ToLower(filepath.Ext(header.Filename)); given == ".jpeg" || given == ".png" {
		ext = given
	}

	proofType := strings.TrimSpace(r.FormValue("type"))
	if proofType == "" {
		writeError(w, r, apperrors.Validation("Validation failed", map[string]string{"type": "required"}))
		return
	}

	proof, err := h.Service.UploadProof(r.Context(), mux.Vars(r)["id"], uid, services.ProofUpload{
		Type:        proofType,
		ContentType: contentType,
		Extension:   ext,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, proof)
}
