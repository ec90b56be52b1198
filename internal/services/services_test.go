package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/colib/colib-backend/internal/database"
	"github.com/colib/colib-backend/internal/events"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/push"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/internal/repository/sqlstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) *repository.Stores {
	t.Helper()
	db, err := database.ConnectSQL("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return sqlstore.NewStores(db)
}

func ptr[T any](v T) *T { return &v }

type sentNotification struct {
	UserID string
	Type   string
	Title  string
	Data   map[string]interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) CreateAndPush(_ context.Context, userID, notifType, title, _ string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{UserID: userID, Type: notifType, Title: title, Data: data})
}

func (f *fakeNotifier) forUser(userID string) []sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentNotification
	for _, n := range f.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakeGate struct {
	approved map[string]bool
}

func (g fakeGate) IsApproved(_ context.Context, userID string, role models.Role) (bool, error) {
	return role == models.RoleDriver && g.approved[userID], nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []events.ShipmentMessage
}

func (p *fakePublisher) Publish(_ context.Context, _ string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, value.(events.ShipmentMessage))
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeSender struct {
	messages []push.Message
}

func (s *fakeSender) Send(_ context.Context, messages []push.Message) push.Result {
	s.messages = append(s.messages, messages...)
	return push.Result{Success: len(messages)}
}

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	u.key, u.contentType, u.body = key, contentType, b
	return "s3://proofs/" + key, nil
}

func seedListing(t *testing.T, stores *repository.Stores, shipperID string, status models.ListingStatus) *models.Listing {
	t.Helper()
	now := time.Now().UTC()
	l := &models.Listing{
		ID:         uuid.NewString(),
		ShipperID:  shipperID,
		Title:      "Sofa",
		WeightKg:   ptr(20.0),
		PriceCents: ptr(int64(5000)),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, stores.Listings.Create(context.Background(), l))
	return l
}

func seedTrip(t *testing.T, stores *repository.Stores, driverID string) *models.Trip {
	t.Helper()
	now := time.Now().UTC()
	trip := &models.Trip{
		ID:              uuid.NewString(),
		DriverID:        driverID,
		OriginCity:      ptr("Paris"),
		DestinationCity: ptr("Lyon"),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, stores.Trips.Create(context.Background(), trip))
	return trip
}
