package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	defaultRadiusKm  = 50
	minRadiusKm      = 5
	maxRadiusKm      = 500
	kmPerDegreeLat   = 111.0
	defaultMapPoints = 100
)

// CreateListingInput is the body of POST /listings.
type CreateListingInput struct {
	Title            string     `json:"title" validate:"required,max=200"`
	Description      *string    `json:"description" validate:"omitempty,max=2000"`
	OriginCity       *string    `json:"origin_city"`
	OriginLat        *float64   `json:"origin_lat" validate:"omitempty,latitude"`
	OriginLng        *float64   `json:"origin_lng" validate:"omitempty,longitude"`
	DestinationCity  *string    `json:"destination_city"`
	DestinationLat   *float64   `json:"destination_lat" validate:"omitempty,latitude"`
	DestinationLng   *float64   `json:"destination_lng" validate:"omitempty,longitude"`
	PickupDate       *time.Time `json:"pickup_date"`
	DeliveryDeadline *time.Time `json:"delivery_deadline"`
	WeightKg         *float64   `json:"weight_kg" validate:"omitempty,gte=0"`
	SizeCategory     *string    `json:"size_category"`
	PriceCents       *int64     `json:"price_cents" validate:"omitempty,gte=0"`
}

// UpdateListingInput is the body of PATCH /listings/{id}. Nil fields are left unchanged.
type UpdateListingInput struct {
	Title            *string               `json:"title" validate:"omitempty,min=1,max=200"`
	Description      *string               `json:"description" validate:"omitempty,max=2000"`
	OriginCity       *string               `json:"origin_city"`
	OriginLat        *float64              `json:"origin_lat" validate:"omitempty,latitude"`
	OriginLng        *float64              `json:"origin_lng" validate:"omitempty,longitude"`
	DestinationCity  *string               `json:"destination_city"`
	DestinationLat   *float64              `json:"destination_lat" validate:"omitempty,latitude"`
	DestinationLng   *float64              `json:"destination_lng" validate:"omitempty,longitude"`
	PickupDate       *time.Time            `json:"pickup_date"`
	DeliveryDeadline *time.Time            `json:"delivery_deadline"`
	WeightKg         *float64              `json:"weight_kg" validate:"omitempty,gte=0"`
	SizeCategory     *string               `json:"size_category"`
	PriceCents       *int64                `json:"price_cents" validate:"omitempty,gte=0"`
	Status           *models.ListingStatus `json:"status" validate:"omitempty,oneof=active inactive cancelled"`
}

// MapQuery selects active listings whose destination lies around a point.
type MapQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Limit    int
}

type ListingService struct {
	repo repository.ListingStore
}

func NewListingService(repo repository.ListingStore) *ListingService {
	return &ListingService{repo: repo}
}

// Create stores a new active listing for the shipper.
func (s *ListingService) Create(ctx context.Context, shipperID string, input CreateListingInput) (*models.Listing, error) {
	now := time.Now().UTC()
	listing := &models.Listing{
		ID:               uuid.NewString(),
		ShipperID:        shipperID,
		Title:            input.Title,
		Description:      input.Description,
		OriginCity:       input.OriginCity,
		OriginLat:        input.OriginLat,
		OriginLng:        input.OriginLng,
		DestinationCity:  input.DestinationCity,
		DestinationLat:   input.DestinationLat,
		DestinationLng:   input.DestinationLng,
		PickupDate:       utcPtr(input.PickupDate),
		DeliveryDeadline: utcPtr(input.DeliveryDeadline),
		WeightKg:         input.WeightKg,
		SizeCategory:     input.SizeCategory,
		PriceCents:       input.PriceCents,
		Status:           models.ListingActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, apperrors.Internal(err)
	}

	logger.Log.WithFields(logrus.Fields{"listing_id": listing.ID, "shipper_id": shipperID}).Info("Listing created")
	return listing, nil
}

// Get returns a listing visible to the user: any active listing, or one they own.
func (s *ListingService) Get(ctx context.Context, id, userID string) (*models.Listing, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.ShipperID != userID && listing.Status != models.ListingActive {
		return nil, apperrors.ErrForbidden
	}
	return listing, nil
}

// ListMine pages through the shipper's own listings.
func (s *ListingService) ListMine(ctx context.Context, shipperID string, status models.ListingStatus, limit, offset int) ([]models.Listing, int64, error) {
	limit, offset = page(limit, offset)
	listings, total, err := s.repo.List(ctx, models.ListingFilter{
		ShipperID: shipperID,
		Status:    status,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return listings, total, nil
}

// Feed lists other shippers' listings, active by default.
func (s *ListingService) Feed(ctx context.Context, userID string, status models.ListingStatus, limit, offset int) ([]models.Listing, error) {
	if status == "" {
		status = models.ListingActive
	}
	limit, offset = page(limit, offset)
	listings, _, err := s.repo.List(ctx, models.ListingFilter{
		ExcludeShipperID: userID,
		Status:           status,
		Limit:            limit,
		Offset:           offset,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return listings, nil
}

// Map returns active listings whose destination falls in the box around the
// query point, newest first.
func (s *ListingService) Map(ctx context.Context, q MapQuery) ([]models.Listing, error) {
	if q.Lat < -90 || q.Lat > 90 || q.Lng < -180 || q.Lng > 180 {
		return nil, apperrors.Validation("Invalid coordinates", nil)
	}
	box := boundingBox(q.Lat, q.Lng, clampRadius(q.RadiusKm))

	limit := q.Limit
	if limit <= 0 || limit > defaultMapPoints {
		limit = defaultMapPoints
	}
	listings, err := s.repo.ListInBox(ctx, box, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return listings, nil
}

// Update applies a partial update to the shipper's listing. Listings that
// already have a shipment cannot be changed.
func (s *ListingService) Update(ctx context.Context, id, shipperID string, input UpdateListingInput) (*models.Listing, error) {
	listing, err := s.owned(ctx, id, shipperID)
	if err != nil {
		return nil, err
	}
	if !listing.Deletable() {
		return nil, apperrors.ErrListingMatched
	}

	if input.Title != nil {
		listing.Title = *input.Title
	}
	if input.Description != nil {
		listing.Description = input.Description
	}
	if input.OriginCity != nil {
		listing.OriginCity = input.OriginCity
	}
	if input.OriginLat != nil {
		listing.OriginLat = input.OriginLat
	}
	if input.OriginLng != nil {
		listing.OriginLng = input.OriginLng
	}
	if input.DestinationCity != nil {
		listing.DestinationCity = input.DestinationCity
	}
	if input.DestinationLat != nil {
		listing.DestinationLat = input.DestinationLat
	}
	if input.DestinationLng != nil {
		listing.DestinationLng = input.DestinationLng
	}
	if input.PickupDate != nil {
		listing.PickupDate = utcPtr(input.PickupDate)
	}
	if input.DeliveryDeadline != nil {
		listing.DeliveryDeadline = utcPtr(input.DeliveryDeadline)
	}
	if input.WeightKg != nil {
		listing.WeightKg = input.WeightKg
	}
	if input.SizeCategory != nil {
		listing.SizeCategory = input.SizeCategory
	}
	if input.PriceCents != nil {
		listing.PriceCents = input.PriceCents
	}
	if input.Status != nil {
		if !models.ShipperEditableStatuses[*input.Status] {
			return nil, apperrors.Validation("Invalid listing status", map[string]string{"status": string(*input.Status)})
		}
		listing.Status = *input.Status
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, s.guardedWriteError(ctx, id, err)
	}
	return listing, nil
}

// Delete removes the shipper's listing while it is still unmatched.
func (s *ListingService) Delete(ctx context.Context, id, shipperID string) error {
	listing, err := s.owned(ctx, id, shipperID)
	if err != nil {
		return err
	}
	if !listing.Deletable() {
		return apperrors.ErrListingMatched
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.guardedWriteError(ctx, id, err)
	}
	logger.Log.WithField("listing_id", id).Info("Listing deleted")
	return nil
}

// guardedWriteError maps a refused update or delete. The listing was matched
// or removed between the read and the write.
func (s *ListingService) guardedWriteError(ctx context.Context, id string, err error) error {
	if !errors.Is(err, repository.ErrStateChanged) {
		return apperrors.Internal(err)
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return apperrors.ErrListingMatched
}

func (s *ListingService) load(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrListingNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return listing, nil
}

func (s *ListingService) owned(ctx context.Context, id, shipperID string) (*models.Listing, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.ShipperID != shipperID {
		return nil, apperrors.ErrForbidden
	}
	return listing, nil
}

func clampRadius(km float64) float64 {
	if km <= 0 {
		return defaultRadiusKm
	}
	return math.Min(maxRadiusKm, math.Max(minRadiusKm, km))
}

// boundingBox approximates a radius around a point with a lat/lng rectangle.
func boundingBox(lat, lng, radiusKm float64) models.BoundingBox {
	degLat := radiusKm / kmPerDegreeLat
	degLng := radiusKm / (kmPerDegreeLat * math.Cos(lat*math.Pi/180))
	return models.BoundingBox{
		MinLat: lat - degLat,
		MaxLat: lat + degLat,
		MinLng: lng - degLng,
		MaxLng: lng + degLng,
	}
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
