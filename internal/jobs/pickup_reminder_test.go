package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/colib/colib-backend/internal/database"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/push"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/internal/repository/sqlstore"
	"github.com/colib/colib-backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSender struct{ calls int }

func (s *countingSender) Send(_ context.Context, m []push.Message) push.Result {
	s.calls++
	return push.Result{Success: len(m)}
}

func newStores(t *testing.T) *repository.Stores {
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

func seedShipment(t *testing.T, stores *repository.Stores, driverID string, pickup *time.Time, status models.ShipmentStatus) *models.Shipment {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	listing := &models.Listing{
		ID: uuid.NewString(), ShipperID: "shipper-1", Title: "Armoire",
		Status: models.ListingMatched, PickupDate: pickup, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, stores.Listings.Create(ctx, listing))
	shipment := &models.Shipment{
		ID: uuid.NewString(), ListingID: listing.ID, ProposalID: uuid.NewString(),
		DriverID: driverID, ShipperID: "shipper-1", Status: status, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, stores.Shipments.Create(ctx, shipment))
	return shipment
}

func TestPickupReminder(t *testing.T) {
	ctx := context.Background()
	stores := newStores(t)
	notifications := services.NewNotificationService(stores.Notifications, stores.Devices, &countingSender{})

	soon := time.Now().UTC().Add(3 * time.Hour)
	later := time.Now().UTC().Add(72 * time.Hour)
	past := time.Now().UTC().Add(-2 * time.Hour)

	due := seedShipment(t, stores, "driver-1", &soon, models.ShipmentPickupScheduled)
	seedShipment(t, stores, "driver-1", &later, models.ShipmentCreated)
	seedShipment(t, stores, "driver-1", &past, models.ShipmentCreated)
	seedShipment(t, stores, "driver-1", nil, models.ShipmentCreated)
	seedShipment(t, stores, "driver-2", &soon, models.ShipmentInTransit)

	reminder := NewPickupReminder(stores, notifications)
	require.NoError(t, reminder.Run(ctx))

	list, err := notifications.List(ctx, "driver-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotifPickupDueSoon, list[0].Type)
	assert.Equal(t, due.ID, list[0].Data["shipment_id"])

	others, err := notifications.List(ctx, "driver-2", 0)
	require.NoError(t, err)
	assert.Empty(t, others, "in-transit shipments are past pickup")

	// A second scan on the same day does not repeat the reminder.
	require.NoError(t, reminder.Run(ctx))
	list, err = notifications.List(ctx, "driver-1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
