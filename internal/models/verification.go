package models

import "time"

type Role string

const (
	RoleShipper Role = "shipper"
	RoleDriver  Role = "driver"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// ProfileVerification records a user's identity review for one role.
type ProfileVerification struct {
	UserID        string             `bson:"_id" json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	Role          Role               `bson:"role" json:"role" gorm:"type:varchar(16);not null"`
	Status        VerificationStatus `bson:"status" json:"status" gorm:"type:varchar(16);index;not null"`
	IDDocURL      *string            `bson:"id_doc_url,omitempty" json:"id_doc_url,omitempty"`
	VehicleDocURL *string            `bson:"vehicle_doc_url,omitempty" json:"vehicle_doc_url,omitempty"`
	ReviewedBy    *string            `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewNote    *string            `bson:"review_note,omitempty" json:"review_note,omitempty"`
	ReviewedAt    *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
