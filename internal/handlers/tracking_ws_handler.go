package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/services"
	jwtutil "github.com/colib/colib-backend/pkg/jwt"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LocationMessage is pushed to every watcher of a trip.
type LocationMessage struct {
	Type      string    `json:"type"`
	TripID    string    `json:"trip_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

func locationMessage(loc *models.TripLocation) LocationMessage {
	return LocationMessage{
		Type:      "location",
		TripID:    loc.TripID,
		Lat:       loc.Lat,
		Lng:       loc.Lng,
		UpdatedAt: loc.UpdatedAt,
	}
}

// sendBuffer is how many positions a watcher may lag behind before the hub
// drops it.
const sendBuffer = 16

type trackingClient struct {
	conn *websocket.Conn
	send chan LocationMessage
}

func newTrackingClient(conn *websocket.Conn) *trackingClient {
	return &trackingClient{conn: conn, send: make(chan LocationMessage, sendBuffer)}
}

// writeLoop is the only writer on the connection. It returns once send is
// closed by the hub or a write fails.
func (c *trackingClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// TrackingHub keeps the watchers of each trip. Broadcast never blocks on a
// connection.
type TrackingHub struct {
	mu      sync.Mutex
	clients map[string]map[*trackingClient]bool
}

func NewTrackingHub() *TrackingHub {
	return &TrackingHub{clients: make(map[string]map[*trackingClient]bool)}
}

func (h *TrackingHub) add(tripID string, c *trackingClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[tripID] == nil {
		h.clients[tripID] = make(map[*trackingClient]bool)
	}
	h.clients[tripID][c] = true
}

func (h *TrackingHub) remove(tripID string, c *trackingClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(tripID, c)
}

// dropLocked unregisters c and closes its send channel, once.
func (h *TrackingHub) dropLocked(tripID string, c *trackingClient) {
	if !h.clients[tripID][c] {
		return
	}
	delete(h.clients[tripID], c)
	close(c.send)
	if len(h.clients[tripID]) == 0 {
		delete(h.clients, tripID)
	}
}

// Watchers returns how many connections follow the trip.
func (h *TrackingHub) Watchers(tripID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[tripID])
}

// Broadcast queues the new position for everyone watching the trip. A watcher
// whose queue is full is dropped.
func (h *TrackingHub) Broadcast(loc *models.TripLocation) {
	msg := locationMessage(loc)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[loc.TripID] {
		h.enqueueLocked(loc.TripID, c, msg)
	}
}

func (h *TrackingHub) deliver(tripID string, c *trackingClient, msg LocationMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[tripID][c] {
		h.enqueueLocked(tripID, c, msg)
	}
}

func (h *TrackingHub) enqueueLocked(tripID string, c *trackingClient, msg LocationMessage) {
	select {
	case c.send <- msg:
	default:
		logger.Log.WithField("trip_id", tripID).Debug("Dropping slow tracking client")
		h.dropLocked(tripID, c)
	}
}

// TrackingHandler streams live driver positions over websocket.
type TrackingHandler struct {
	Trips     *services.TripService
	Hub       *TrackingHub
	JWTSecret string
}

func NewTrackingHandler(trips *services.TripService, hub *TrackingHub, jwtSecret string) *TrackingHandler {
	return &TrackingHandler{Trips: trips, Hub: hub, JWTSecret: jwtSecret}
}

// TrackTripHandler authenticates with the token query parameter, since
// browsers cannot set headers on websocket requests.
func (h *TrackingHandler) TrackTripHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, r, apperrors.ErrUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Debug("Tracking auth failed")
		writeError(w, r, apperrors.ErrUnauthorized)
		return
	}

	tripID := mux.Vars(r)["id"]
	if _, err := h.Trips.Get(r.Context(), tripID, claims.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	log := logger.Log.WithFields(logrus.Fields{"trip_id": tripID, "user_id": claims.UserID})
	log.Debug("Tracking client connected")

	client := newTrackingClient(conn)
	h.Hub.add(tripID, client)
	go client.writeLoop()
	defer func() {
		h.Hub.remove(tripID, client)
		conn.Close()
		log.Debug("Tracking client disconnected")
	}()

	if loc, err := h.Trips.GetLocation(r.Context(), tripID, claims.UserID); err == nil {
		h.Hub.deliver(tripID, client, locationMessage(loc))
	}

	// Watchers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
