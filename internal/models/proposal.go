package models

import "time"

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// Proposal is a driver's offer to carry a listing. ShipperID is copied from the
// listing when the proposal is created.
type Proposal struct {
	ID         string         `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	ListingID  string         `bson:"listing_id" json:"listing_id" gorm:"type:varchar(36);index;not null"`
	TripID     *string        `bson:"trip_id,omitempty" json:"trip_id,omitempty" gorm:"type:varchar(36);index"`
	DriverID   string         `bson:"driver_id" json:"driver_id" gorm:"type:varchar(64);index;not null"`
	ShipperID  string         `bson:"shipper_id" json:"shipper_id" gorm:"type:varchar(64);index;not null"`
	PriceCents *int64         `bson:"price_cents,omitempty" json:"price_cents,omitempty"`
	Message    *string        `bson:"message,omitempty" json:"message,omitempty"`
	Status     ProposalStatus `bson:"status" json:"status" gorm:"type:varchar(20);index;not null"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at" gorm:"index"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updated_at"`
}

// IsMember reports whether userID is the driver or the shipper of the proposal.
func (p *Proposal) IsMember(userID string) bool {
	return p.DriverID == userID || p.ShipperID == userID
}
