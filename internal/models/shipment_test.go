package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTableIsTotal(t *testing.T) {
	for _, from := range ShipmentStatuses {
		_, ok := AllowedTransitions[from]
		assert.True(t, ok, "status %s missing from the transition table", from)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[ShipmentStatus][]ShipmentStatus{
		ShipmentCreated:         {ShipmentPickupScheduled, ShipmentCancelled},
		ShipmentPickupScheduled: {ShipmentPickedUp, ShipmentCancelled},
		ShipmentPickedUp:        {ShipmentInTransit, ShipmentCancelled},
		ShipmentInTransit:       {ShipmentDelivered, ShipmentCancelled},
	}

	for _, from := range ShipmentStatuses {
		for _, to := range ShipmentStatuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, from := range []ShipmentStatus{ShipmentDelivered, ShipmentDisputed, ShipmentCancelled} {
		for _, to := range ShipmentStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(ShipmentInTransit, ShipmentDisputed))
}

func TestListingStatusFor(t *testing.T) {
	s, ok := ListingStatusFor(ShipmentDelivered)
	assert.True(t, ok)
	assert.Equal(t, ListingDelivered, s)

	s, ok = ListingStatusFor(ShipmentCancelled)
	assert.True(t, ok)
	assert.Equal(t, ListingCancelled, s)

	_, ok = ListingStatusFor(ShipmentPickedUp)
	assert.False(t, ok)
}

func TestIsValidShipmentStatus(t *testing.T) {
	assert.True(t, IsValidShipmentStatus("in_transit"))
	assert.False(t, IsValidShipmentStatus("lost"))
}
