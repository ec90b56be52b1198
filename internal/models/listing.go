package models

import "time"

type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingMatched   ListingStatus = "matched"
	ListingDelivered ListingStatus = "delivered"
	ListingCancelled ListingStatus = "cancelled"
	ListingInactive  ListingStatus = "inactive"
)

// ShipperEditableStatuses are the listing statuses a shipper may set directly.
// matched and delivered are only ever set by the proposal and shipment flows.
var ShipperEditableStatuses = map[ListingStatus]bool{
	ListingActive:    true,
	ListingInactive:  true,
	ListingCancelled: true,
}

// Listing is a shipper's request to have a package transported.
type Listing struct {
	ID               string        `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	ShipperID        string        `bson:"shipper_id" json:"shipper_id" gorm:"type:varchar(64);index;not null"`
	Title            string        `bson:"title" json:"title" gorm:"not null"`
	Description      *string       `bson:"description,omitempty" json:"description,omitempty"`
	OriginCity       *string       `bson:"origin_city,omitempty" json:"origin_city,omitempty"`
	OriginLat        *float64      `bson:"origin_lat,omitempty" json:"origin_lat,omitempty"`
	OriginLng        *float64      `bson:"origin_lng,omitempty" json:"origin_lng,omitempty"`
	DestinationCity  *string       `bson:"destination_city,omitempty" json:"destination_city,omitempty"`
	DestinationLat   *float64      `bson:"destination_lat,omitempty" json:"destination_lat,omitempty" gorm:"index"`
	DestinationLng   *float64      `bson:"destination_lng,omitempty" json:"destination_lng,omitempty" gorm:"index"`
	PickupDate       *time.Time    `bson:"pickup_date,omitempty" json:"pickup_date,omitempty"`
	DeliveryDeadline *time.Time    `bson:"delivery_deadline,omitempty" json:"delivery_deadline,omitempty"`
	WeightKg         *float64      `bson:"weight_kg,omitempty" json:"weight_kg,omitempty"`
	SizeCategory     *string       `bson:"size_category,omitempty" json:"size_category,omitempty"`
	PriceCents       *int64        `bson:"price_cents,omitempty" json:"price_cents,omitempty"`
	Status           ListingStatus `bson:"status" json:"status" gorm:"type:varchar(20);index;not null"`
	CreatedAt        time.Time     `bson:"created_at" json:"created_at" gorm:"index"`
	UpdatedAt        time.Time     `bson:"updated_at" json:"updated_at"`
}

// EditableStatuses are the stored statuses in which a shipper may still edit
// or delete a listing.
var EditableStatuses = []ListingStatus{ListingActive, ListingInactive}

// Deletable reports whether the listing can still be edited or hard-deleted.
func (l *Listing) Deletable() bool {
	return l.Status == ListingActive || l.Status == ListingInactive
}

// EditableFields maps the columns a shipper update writes to their values.
// Identity, owner and creation time are never part of an update.
func (l *Listing) EditableFields() map[string]interface{} {
	return map[string]interface{}{
		"title":             l.Title,
		"description":       l.Description,
		"origin_city":       l.OriginCity,
		"origin_lat":        l.OriginLat,
		"origin_lng":        l.OriginLng,
		"destination_city":  l.DestinationCity,
		"destination_lat":   l.DestinationLat,
		"destination_lng":   l.DestinationLng,
		"pickup_date":       l.PickupDate,
		"delivery_deadline": l.DeliveryDeadline,
		"weight_kg":         l.WeightKg,
		"size_category":     l.SizeCategory,
		"price_cents":       l.PriceCents,
		"status":            l.Status,
		"updated_at":        l.UpdatedAt,
	}
}

// ListingFilter selects listings for the owner view and the public feed.
type ListingFilter struct {
	ShipperID        string
	ExcludeShipperID string
	Status           ListingStatus
	Limit            int
	Offset           int
}

// BoundingBox is a lat/lng rectangle used by the map query.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}
