package services

import (
	"context"
	"errors"
	"time"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TripInput is the body of POST /trips and PATCH /trips/{id}. On update nil
// fields are left unchanged.
type TripInput struct {
	OriginCity      *string    `json:"origin_city"`
	OriginLat       *float64   `json:"origin_lat" validate:"omitempty,latitude"`
	OriginLng       *float64   `json:"origin_lng" validate:"omitempty,longitude"`
	DestinationCity *string    `json:"destination_city"`
	DestinationLat  *float64   `json:"destination_lat" validate:"omitempty,latitude"`
	DestinationLng  *float64   `json:"destination_lng" validate:"omitempty,longitude"`
	DepartAt        *time.Time `json:"depart_at"`
	ArriveAt        *time.Time `json:"arrive_at"`
	CapacityKg      *float64   `json:"capacity_kg" validate:"omitempty,gte=0"`
	Notes           *string    `json:"notes" validate:"omitempty,max=2000"`
}

// LocationInput is a driver position report.
type LocationInput struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

type TripService struct {
	trips     repository.TripStore
	locations repository.TripLocationStore
	proposals repository.ProposalStore
	gate      VerificationGate
}

func NewTripService(trips repository.TripStore, locations repository.TripLocationStore, proposals repository.ProposalStore, gate VerificationGate) *TripService {
	return &TripService{
		trips:     trips,
		locations: locations,
		proposals: proposals,
		gate:      gate,
	}
}

// Create stores a trip for a verified driver.
func (s *TripService) Create(ctx context.Context, driverID string, input TripInput) (*models.Trip, error) {
	ok, err := s.gate.IsApproved(ctx, driverID, models.RoleDriver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrVerificationRequired
	}

	now := time.Now().UTC()
	trip := &models.Trip{
		ID:              uuid.NewString(),
		DriverID:        driverID,
		OriginCity:      input.OriginCity,
		OriginLat:       input.OriginLat,
		OriginLng:       input.OriginLng,
		DestinationCity: input.DestinationCity,
		DestinationLat:  input.DestinationLat,
		DestinationLng:  input.DestinationLng,
		DepartAt:        utcPtr(input.DepartAt),
		ArriveAt:        utcPtr(input.ArriveAt),
		CapacityKg:      input.CapacityKg,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, apperrors.Internal(err)
	}

	logger.Log.WithFields(logrus.Fields{"trip_id": trip.ID, "driver_id": driverID}).Info("Trip created")
	return trip, nil
}

// Get returns a trip to its driver or to a shipper holding a proposal on it.
func (s *TripService) Get(ctx context.Context, id, userID string) (*models.Trip, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, trip, userID); err != nil {
		return nil, err
	}
	return trip, nil
}

// List returns the driver's trips, newest first.
func (s *TripService) List(ctx context.Context, driverID string, limit int) ([]models.Trip, error) {
	limit, _ = page(limit, 0)
	trips, err := s.trips.ListByDriver(ctx, driverID, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return trips, nil
}

// Update applies a partial update to the driver's trip.
func (s *TripService) Update(ctx context.Context, id, driverID string, input TripInput) (*models.Trip, error) {
	trip, err := s.owned(ctx, id, driverID)
	if err != nil {
		return nil, err
	}

	if input.OriginCity != nil {
		trip.OriginCity = input.OriginCity
	}
	if input.OriginLat != nil {
		trip.OriginLat = input.OriginLat
	}
	if input.OriginLng != nil {
		trip.OriginLng = input.OriginLng
	}
	if input.DestinationCity != nil {
		trip.DestinationCity = input.DestinationCity
	}
	if input.DestinationLat != nil {
		trip.DestinationLat = input.DestinationLat
	}
	if input.DestinationLng != nil {
		trip.DestinationLng = input.DestinationLng
	}
	if input.DepartAt != nil {
		trip.DepartAt = utcPtr(input.DepartAt)
	}
	if input.ArriveAt != nil {
		trip.ArriveAt = utcPtr(input.ArriveAt)
	}
	if input.CapacityKg != nil {
		trip.CapacityKg = input.CapacityKg
	}
	if input.Notes != nil {
		trip.Notes = input.Notes
	}
	trip.UpdatedAt = time.Now().UTC()

	if err := s.trips.Update(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrTripNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return trip, nil
}

// Delete removes the driver's trip.
func (s *TripService) Delete(ctx context.Context, id, driverID string) error {
	if _, err := s.owned(ctx, id, driverID); err != nil {
		return err
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrTripNotFound
		}
		return apperrors.Internal(err)
	}
	logger.Log.WithField("trip_id", id).Info("Trip deleted")
	return nil
}

// UpdateLocation records the driver's current position on the trip.
func (s *TripService) UpdateLocation(ctx context.Context, tripID, driverID string, input LocationInput) (*models.TripLocation, error) {
	if _, err := s.owned(ctx, tripID, driverID); err != nil {
		return nil, err
	}
	if input.Lat == nil || input.Lng == nil {
		return nil, apperrors.Validation("lat and lng are required", nil)
	}

	loc := &models.TripLocation{
		TripID:    tripID,
		DriverID:  driverID,
		Lat:       *input.Lat,
		Lng:       *input.Lng,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.locations.Upsert(ctx, loc); err != nil {
		return nil, apperrors.Internal(err)
	}
	return loc, nil
}

// GetLocation returns the last reported position of the trip.
func (s *TripService) GetLocation(ctx context.Context, tripID, userID string) (*models.TripLocation, error) {
	if _, err := s.Get(ctx, tripID, userID); err != nil {
		return nil, err
	}
	loc, err := s.locations.Get(ctx, tripID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(apperrors.KindNotFound, "No location reported yet")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return loc, nil
}

func (s *TripService) load(ctx context.Context, id string) (*models.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrTripNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return trip, nil
}

func (s *TripService) owned(ctx context.Context, id, driverID string) (*models.Trip, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, apperrors.ErrForbidden
	}
	return trip, nil
}

func (s *TripService) canView(ctx context.Context, trip *models.Trip, userID string) error {
	if trip.DriverID == userID {
		return nil
	}
	ok, err := s.proposals.ExistsForTrip(ctx, trip.ID, userID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !ok {
		return apperrors.ErrForbidden
	}
	return nil
}
