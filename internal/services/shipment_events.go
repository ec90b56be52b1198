package services

import (
	"context"
	"errors"
	"time"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/events"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/google/uuid"
)

func newEvent(shipmentID, actorID string, typ models.ShipmentEventType, payload map[string]interface{}) *models.ShipmentEvent {
	return &models.ShipmentEvent{
		ID:         uuid.NewString(),
		ShipmentID: shipmentID,
		ActorID:    actorID,
		Type:       typ,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
}

// publish forwards a committed event to the stream. Failures are only logged.
func publish(ctx context.Context, p events.Publisher, e *models.ShipmentEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e.ShipmentID, events.FromEvent(e)); err != nil {
		logger.Log.WithError(err).WithField("event_id", e.ID).Warn("Failed to publish shipment event")
	}
}

// asAppError keeps business errors raised inside a transaction and hides
// everything else behind an internal error.
func asAppError(err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	logger.Log.WithError(err).Error("Transaction failed")
	return apperrors.Internal(err)
}
