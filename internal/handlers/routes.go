package handlers

import (
	"net/http"

	"github.com/colib/colib-backend/pkg/middleware"
	"github.com/gorilla/mux"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Listings      *ListingHandler
	Trips         *TripHandler
	Tracking      *TrackingHandler
	Proposals     *ProposalHandler
	Shipments     *ShipmentHandler
	Notifications *NotificationHandler
	Verification  *VerificationHandler
	Matches       *MatchHandler
}

// NewRouter mounts the API. Every route except /health and the tracking
// websocket requires a bearer token.
func NewRouter(h *Handlers, jwtSecret string) *mux.Router {
	router := mux.NewRouter()
	auth := middleware.AuthMiddleware(jwtSecret)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// The websocket authenticates with its token query parameter.
	router.HandleFunc("/trips/{id}/location/ws", h.Tracking.TrackTripHandler).Methods("GET")

	listingRoutes := router.PathPrefix("/listings").Subrouter()
	listingRoutes.Use(auth)
	listingRoutes.HandleFunc("", h.Listings.ListMyListingsHandler).Methods("GET")
	listingRoutes.HandleFunc("", h.Listings.CreateListingHandler).Methods("POST")
	listingRoutes.HandleFunc("/feed", h.Listings.FeedHandler).Methods("GET")
	listingRoutes.HandleFunc("/map", h.Listings.MapHandler).Methods("GET")
	listingRoutes.HandleFunc("/{id}", h.Listings.GetListingHandler).Methods("GET")
	listingRoutes.HandleFunc("/{id}", h.Listings.UpdateListingHandler).Methods("PATCH")
	listingRoutes.HandleFunc("/{id}", h.Listings.DeleteListingHandler).Methods("DELETE")

	tripRoutes := router.PathPrefix("/trips").Subrouter()
	tripRoutes.Use(auth)
	tripRoutes.HandleFunc("", h.Trips.ListTripsHandler).Methods("GET")
	tripRoutes.HandleFunc("", h.Trips.CreateTripHandler).Methods("POST")
	tripRoutes.HandleFunc("/{id}", h.Trips.GetTripHandler).Methods("GET")
	tripRoutes.HandleFunc("/{id}", h.Trips.UpdateTripHandler).Methods("PATCH")
	tripRoutes.HandleFunc("/{id}", h.Trips.DeleteTripHandler).Methods("DELETE")
	tripRoutes.HandleFunc("/{id}/location", h.Trips.UpdateLocationHandler).Methods("PUT")
	tripRoutes.HandleFunc("/{id}/location", h.Trips.GetLocationHandler).Methods("GET")

	proposalRoutes := router.PathPrefix("/proposals").Subrouter()
	proposalRoutes.Use(auth)
	proposalRoutes.HandleFunc("", h.Proposals.ListProposalsHandler).Methods("GET")
	proposalRoutes.HandleFunc("", h.Proposals.CreateProposalHandler).Methods("POST")
	proposalRoutes.HandleFunc("/{id}", h.Proposals.GetProposalHandler).Methods("GET")
	proposalRoutes.HandleFunc("/{id}/accept", h.Proposals.AcceptProposalHandler).Methods("POST")
	proposalRoutes.HandleFunc("/{id}/reject", h.Proposals.RejectProposalHandler).Methods("POST")

	shipmentRoutes := router.PathPrefix("/shipments").Subrouter()
	shipmentRoutes.Use(auth)
	shipmentRoutes.HandleFunc("", h.Shipments.ListShipmentsHandler).Methods("GET")
	shipmentRoutes.HandleFunc("/{id}", h.Shipments.GetShipmentHandler).Methods("GET")
	shipmentRoutes.HandleFunc("/{id}/events", h.Shipments.ListEventsHandler).Methods("GET")
	shipmentRoutes.HandleFunc("/{id}/proofs", h.Shipments.ListProofsHandler).Methods("GET")
	shipmentRoutes.HandleFunc("/{id}/status", h.Shipments.UpdateStatusHandler).Methods("POST")
	shipmentRoutes.HandleFunc("/{id}/proof", h.Shipments.AddProofHandler).Methods("POST")
	shipmentRoutes.HandleFunc("/{id}/proof/upload", h.Shipments.UploadProofHandler).Methods("POST")

	router.Handle("/devices", auth(http.HandlerFunc(h.Notifications.RegisterDeviceHandler))).Methods("POST")

	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(auth)
	notificationRoutes.HandleFunc("", h.Notifications.GetUserNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/{id}/read", h.Notifications.MarkAsReadHandler).Methods("POST")

	meRoutes := router.PathPrefix("/me").Subrouter()
	meRoutes.Use(auth)
	meRoutes.HandleFunc("/verification", h.Verification.GetMyVerificationHandler).Methods("GET")
	meRoutes.HandleFunc("/verification", h.Verification.SubmitVerificationHandler).Methods("PUT")

	router.Handle("/matches", auth(http.HandlerFunc(h.Matches.MatchesHandler))).Methods("GET")

	geoRoutes := router.PathPrefix("/geo").Subrouter()
	geoRoutes.Use(auth)
	geoRoutes.HandleFunc("/search", h.Matches.SearchPlacesHandler).Methods("GET")
	geoRoutes.HandleFunc("/reverse", h.Matches.ReverseGeocodeHandler).Methods("GET")

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(auth)
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/verifications", h.Verification.ListPendingHandler).Methods("GET")
	adminRoutes.HandleFunc("/verifications/{user_id}/review", h.Verification.ReviewHandler).Methods("POST")

	router.Use(middleware.LoggingMiddleware)
	return router
}
