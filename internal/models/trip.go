package models

import "time"

// Trip is a driver's offered route and travel window.
type Trip struct {
	ID              string     `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	DriverID        string     `bson:"driver_id" json:"driver_id" gorm:"type:varchar(64);index;not null"`
	OriginCity      *string    `bson:"origin_city,omitempty" json:"origin_city,omitempty"`
	OriginLat       *float64   `bson:"origin_lat,omitempty" json:"origin_lat,omitempty"`
	OriginLng       *float64   `bson:"origin_lng,omitempty" json:"origin_lng,omitempty"`
	DestinationCity *string    `bson:"destination_city,omitempty" json:"destination_city,omitempty"`
	DestinationLat  *float64   `bson:"destination_lat,omitempty" json:"destination_lat,omitempty"`
	DestinationLng  *float64   `bson:"destination_lng,omitempty" json:"destination_lng,omitempty"`
	DepartAt        *time.Time `bson:"depart_at,omitempty" json:"depart_at,omitempty"`
	ArriveAt        *time.Time `bson:"arrive_at,omitempty" json:"arrive_at,omitempty"`
	CapacityKg      *float64   `bson:"capacity_kg,omitempty" json:"capacity_kg,omitempty"`
	Notes           *string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at" gorm:"index"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
}

// TripLocation is the last position reported by a driver on a trip.
type TripLocation struct {
	TripID    string    `bson:"_id" json:"trip_id" gorm:"primaryKey;type:varchar(36)"`
	DriverID  string    `bson:"driver_id" json:"driver_id" gorm:"type:varchar(64);not null"`
	Lat       float64   `bson:"lat" json:"lat"`
	Lng       float64   `bson:"lng" json:"lng"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
