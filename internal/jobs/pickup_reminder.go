package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/internal/services"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// PickupReminder warns drivers about pickups due in the next 24 hours.
type PickupReminder struct {
	Shipments     repository.ShipmentStore
	Listings      repository.ListingStore
	Notifications repository.NotificationStore
	Notifier      services.Notifier

	now func() time.Time
}

// NewPickupReminder creates a new instance of PickupReminder
func NewPickupReminder(stores *repository.Stores, notifier services.Notifier) *PickupReminder {
	return &PickupReminder{
		Shipments:     stores.Shipments,
		Listings:      stores.Listings,
		Notifications: stores.Notifications,
		Notifier:      notifier,
		now:           time.Now,
	}
}

// Run scans open shipments and notifies each driver at most once a day per shipment.
func (p *PickupReminder) Run(ctx context.Context) error {
	shipments, err := p.Shipments.ListByStatuses(ctx, []models.ShipmentStatus{
		models.ShipmentCreated,
		models.ShipmentPickupScheduled,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch shipments: %w", err)
	}

	now := p.now().UTC()
	tomorrow := now.Add(24 * time.Hour)
	dayStart := now.Truncate(24 * time.Hour)

	sent := 0
	for _, shipment := range shipments {
		listing, err := p.Listings.GetByID(ctx, shipment.ListingID)
		if err != nil {
			logger.Log.WithError(err).WithField("shipment_id", shipment.ID).Warn("Pickup reminder: listing lookup failed")
			continue
		}
		if listing.PickupDate == nil || !listing.PickupDate.After(now) || !listing.PickupDate.Before(tomorrow) {
			continue
		}

		already, err := p.remindedSince(ctx, shipment, dayStart)
		if err != nil {
			logger.Log.WithError(err).WithField("shipment_id", shipment.ID).Warn("Pickup reminder: history lookup failed")
			continue
		}
		if already {
			continue
		}

		p.Notifier.CreateAndPush(ctx, shipment.DriverID, models.NotifPickupDueSoon,
			"Enlèvement imminent",
			fmt.Sprintf("L'enlèvement de \"%s\" est prévu le %s.", listing.Title, listing.PickupDate.Format("02/01 15:04")),
			map[string]interface{}{"shipment_id": shipment.ID, "listing_id": listing.ID},
		)
		sent++
	}

	logger.Log.WithFields(logrus.Fields{"scanned": len(shipments), "sent": sent}).Info("Pickup reminder scan completed")
	return nil
}

func (p *PickupReminder) remindedSince(ctx context.Context, shipment models.Shipment, since time.Time) (bool, error) {
	previous, err := p.Notifications.ListByTypeSince(ctx, shipment.DriverID, models.NotifPickupDueSoon, since)
	if err != nil {
		return false, err
	}
	for _, n := range previous {
		if id, ok := n.Data["shipment_id"].(string); ok && id == shipment.ID {
			return true, nil
		}
	}
	return false, nil
}
