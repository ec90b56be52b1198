package models

import "time"

// Notification types sent by the marketplace flows.
const (
	NotifProposalReceived     = "proposal_received"
	NotifProposalAccepted     = "proposal_accepted"
	NotifProposalRejected     = "proposal_rejected"
	NotifShipmentPickedUp     = "shipment_picked_up"
	NotifShipmentDelivered    = "shipment_delivered"
	NotifPickupDueSoon        = "pickup_due_soon"
	NotifVerificationApproved = "verification_approved"
	NotifVerificationRejected = "verification_rejected"
)

type Notification struct {
	ID        string                 `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string                 `bson:"user_id" json:"user_id" gorm:"type:varchar(64);index;not null"`
	Type      string                 `bson:"type" json:"type" gorm:"type:varchar(48);index"` // e.g. "proposal_received", "shipment_delivered"
	Title     string                 `bson:"title" json:"title"`                             // Short headline
	Body      *string                `bson:"body,omitempty" json:"body,omitempty"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty" gorm:"serializer:json;type:text"`
	Read      bool                   `bson:"read" json:"read"` // True if user viewed it
	CreatedAt time.Time              `bson:"created_at" json:"created_at" gorm:"index"`
	ExpiresAt time.Time              `bson:"expires_at" json:"expires_at" gorm:"index"` // For auto-deletion by the cleanup cron
}

// DeviceToken is a registered Expo push token.
type DeviceToken struct {
	Token     string    `bson:"_id" json:"token" gorm:"primaryKey;type:varchar(255)"`
	UserID    string    `bson:"user_id" json:"user_id" gorm:"type:varchar(64);index;not null"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
