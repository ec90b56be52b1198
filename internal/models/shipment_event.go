package models

import "time"

type ShipmentEventType string

const (
	EventShipmentCreated ShipmentEventType = "shipment_created"
	EventStatusUpdated   ShipmentEventType = "status_updated"
	EventProofAdded      ShipmentEventType = "proof_added"
)

// ShipmentEvent is an append-only audit record of a shipment lifecycle action.
type ShipmentEvent struct {
	ID         string                 `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	ShipmentID string                 `bson:"shipment_id" json:"shipment_id" gorm:"type:varchar(36);index;not null"`
	ActorID    string                 `bson:"actor_id" json:"actor_id" gorm:"type:varchar(64);not null"`
	Type       ShipmentEventType      `bson:"type" json:"type" gorm:"type:varchar(32);not null"`
	Payload    map[string]interface{} `bson:"payload" json:"payload" gorm:"serializer:json;type:text"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at" gorm:"index"`
}

// Proof is photographic evidence attached to a shipment.
type Proof struct {
	ID          string    `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	ShipmentID  string    `bson:"shipment_id" json:"shipment_id" gorm:"type:varchar(36);index;not null"`
	UploadedBy  string    `bson:"uploaded_by" json:"uploaded_by" gorm:"type:varchar(64);not null"`
	Type        string    `bson:"type" json:"type" gorm:"type:varchar(32);not null"` // e.g. "pickup", "delivery"
	StoragePath string    `bson:"storage_path" json:"storage_path" gorm:"not null"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
