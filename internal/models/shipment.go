package models

import "time"

type ShipmentStatus string

const (
	ShipmentCreated         ShipmentStatus = "created"
	ShipmentPickupScheduled ShipmentStatus = "pickup_scheduled"
	ShipmentPickedUp        ShipmentStatus = "picked_up"
	ShipmentInTransit       ShipmentStatus = "in_transit"
	ShipmentDelivered       ShipmentStatus = "delivered"
	ShipmentDisputed        ShipmentStatus = "disputed"
	ShipmentCancelled       ShipmentStatus = "cancelled"
)

// ShipmentStatuses lists every status in lifecycle order.
var ShipmentStatuses = []ShipmentStatus{
	ShipmentCreated,
	ShipmentPickupScheduled,
	ShipmentPickedUp,
	ShipmentInTransit,
	ShipmentDelivered,
	ShipmentDisputed,
	ShipmentCancelled,
}

// AllowedTransitions is the shipment state machine. disputed is set outside
// this table and, like delivered and cancelled, has no outgoing edge.
var AllowedTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentCreated:         {ShipmentPickupScheduled, ShipmentCancelled},
	ShipmentPickupScheduled: {ShipmentPickedUp, ShipmentCancelled},
	ShipmentPickedUp:        {ShipmentInTransit, ShipmentCancelled},
	ShipmentInTransit:       {ShipmentDelivered, ShipmentCancelled},
	ShipmentDelivered:       {},
	ShipmentDisputed:        {},
	ShipmentCancelled:       {},
}

// IsValidShipmentStatus reports whether s names a known status.
func IsValidShipmentStatus(s ShipmentStatus) bool {
	_, ok := AllowedTransitions[s]
	return ok
}

// CanTransition reports whether a shipment in status from may move to status to.
func CanTransition(from, to ShipmentStatus) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ListingStatusFor returns the listing status a shipment status propagates to, if any.
func ListingStatusFor(s ShipmentStatus) (ListingStatus, bool) {
	switch s {
	case ShipmentDelivered:
		return ListingDelivered, true
	case ShipmentCancelled:
		return ListingCancelled, true
	}
	return "", false
}

// Shipment is the trackable transport job created when a proposal is accepted.
// There is at most one shipment per listing.
type Shipment struct {
	ID         string         `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	ListingID  string         `bson:"listing_id" json:"listing_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	ProposalID string         `bson:"proposal_id" json:"proposal_id" gorm:"type:varchar(36);not null"`
	DriverID   string         `bson:"driver_id" json:"driver_id" gorm:"type:varchar(64);index;not null"`
	ShipperID  string         `bson:"shipper_id" json:"shipper_id" gorm:"type:varchar(64);index;not null"`
	Status     ShipmentStatus `bson:"status" json:"status" gorm:"type:varchar(20);index;not null"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at" gorm:"index"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updated_at"`
}

// IsMember reports whether userID is the driver or the shipper of the shipment.
func (s *Shipment) IsMember(userID string) bool {
	return s.DriverID == userID || s.ShipperID == userID
}
