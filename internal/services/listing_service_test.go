package services

import (
	"context"
	"testing"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingRoundTrip(t *testing.T) {
	stores := newTestStores(t)
	svc := NewListingService(stores.Listings)
	ctx := context.Background()

	created, err := svc.Create(ctx, "shipper-1", CreateListingInput{
		Title:      "Sofa",
		WeightKg:   ptr(20.0),
		PriceCents: ptr(int64(5000)),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ListingActive, created.Status)

	got, err := svc.Get(ctx, created.ID, "shipper-1")
	require.NoError(t, err)
	assert.Equal(t, "Sofa", got.Title)
	require.NotNil(t, got.WeightKg)
	assert.Equal(t, 20.0, *got.WeightKg)
	require.NotNil(t, got.PriceCents)
	assert.Equal(t, int64(5000), *got.PriceCents)
	assert.Equal(t, "shipper-1", got.ShipperID)
}

func TestGetListingVisibility(t *testing.T) {
	stores := newTestStores(t)
	svc := NewListingService(stores.Listings)
	ctx := context.Background()

	active := seedListing(t, stores, "shipper-1", models.ListingActive)
	inactive := seedListing(t, stores, "shipper-1", models.ListingInactive)

	_, err := svc.Get(ctx, active.ID, "driver-1")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, inactive.ID, "driver-1")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Get(ctx, inactive.ID, "shipper-1")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, uuid.NewString(), "shipper-1")
	assert.ErrorIs(t, err, apperrors.ErrListingNotFound)
}

func TestListMineAndFeed(t *testing.T) {
	stores := newTestStores(t)
	svc := NewListingService(stores.Listings)
	ctx := context.Background()

	seedListing(t, stores, "shipper-1", models.ListingActive)
	seedListing(t, stores, "shipper-1", models.ListingInactive)
	seedListing(t, stores, "shipper-2", models.ListingActive)
	seedListing(t, stores, "shipper-2", models.ListingMatched)

	mine, total, err := svc.ListMine(ctx, "shipper-1", "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.Equal(t, int64(2), total)

	mine, total, err = svc.ListMine(ctx, "shipper-1", models.ListingInactive, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Equal(t, int64(1), total)

	feed, err := svc.Feed(ctx, "shipper-1", "", 0, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "shipper-2", feed[0].ShipperID)
	assert.Equal(t, models.ListingActive, feed[0].Status)
}

func TestMapListings(t *testing.T) {
	stores := newTestStores(t)
	svc := NewListingService(stores.Listings)
	ctx := context.Background()

	near, err := svc.Create(ctx, "shipper-1", CreateListingInput{Title: "Lyon", DestinationLat: ptr(45.76), DestinationLng: ptr(4.84)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "shipper-1", CreateListingInput{Title: "Paris", DestinationLat: ptr(48.85), DestinationLng: ptr(2.35)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "shipper-1", CreateListingInput{Title: "No coords"})
	require.NoError(t, err)

	got, err := svc.Map(ctx, MapQuery{Lat: 45.75, Lng: 4.85})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)

	got, err = svc.Map(ctx, MapQuery{Lat: 45.75, Lng: 4.85, RadiusKm: 5000})
	require.NoError(t, err)
	assert.Len(t, got, 2, "radius is clamped to 500 km")

	_, err = svc.Map(ctx, MapQuery{Lat: 95, Lng: 0})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestBoundingBox(t *testing.T) {
	box := boundingBox(0, 10, 111)
	assert.InDelta(t, -1, box.MinLat, 1e-9)
	assert.InDelta(t, 1, box.MaxLat, 1e-9)
	assert.InDelta(t, 9, box.MinLng, 1e-9)
	assert.InDelta(t, 11, box.MaxLng, 1e-9)

	assert.Equal(t, 50.0, clampRadius(0))
	assert.Equal(t, 5.0, clampRadius(1))
	assert.Equal(t, 500.0, clampRadius(900))
}

func TestUpdateAndDeleteListing(t *testing.T) {
	stores := newTestStores(t)
	svc := NewListingService(stores.Listings)
	ctx := context.Background()

	l := seedListing(t, stores, "shipper-1", models.ListingActive)

	_, err := svc.Update(ctx, l.ID, "shipper-2", UpdateListingInput{Title: ptr("Mine now")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := svc.Update(ctx, l.ID, "shipper-1", UpdateListingInput{
		Title:  ptr("Canapé"),
		Status: ptr(models.ListingInactive),
	})
	require.NoError(t, err)
	assert.Equal(t, "Canapé", updated.Title)
	assert.Equal(t, models.ListingInactive, updated.Status)
	require.NotNil(t, updated.WeightKg)
	assert.Equal(t, 20.0, *updated.WeightKg)

	_, err = svc.Update(ctx, l.ID, "shipper-1", UpdateListingInput{Status: ptr(models.ListingMatched)})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, svc.Delete(ctx, l.ID, "shipper-1"))
	_, err = svc.Get(ctx, l.ID, "shipper-1")
	assert.ErrorIs(t, err, apperrors.ErrListingNotFound)

	matched := seedListing(t, stores, "shipper-1", models.ListingMatched)
	assert.ErrorIs(t, svc.Delete(ctx, matched.ID, "shipper-1"), apperrors.ErrListingMatched)
	_, err = svc.Update(ctx, matched.ID, "shipper-1", UpdateListingInput{Title: ptr("x")})
	assert.ErrorIs(t, err, apperrors.ErrListingMatched)
}

// interleavedListings runs before once, between the service's read and its
// guarded write.
type interleavedListings struct {
	repository.ListingStore
	before func()
}

func (l *interleavedListings) runBefore() {
	if l.before != nil {
		l.before()
		l.before = nil
	}
}

func (l *interleavedListings) Update(ctx context.Context, listing *models.Listing) error {
	l.runBefore()
	return l.ListingStore.Update(ctx, listing)
}

func (l *interleavedListings) Delete(ctx context.Context, id string) error {
	l.runBefore()
	return l.ListingStore.Delete(ctx, id)
}

func acceptBetweenReadAndWrite(t *testing.T, stores *repository.Stores, listing *models.Listing) *interleavedListings {
	t.Helper()
	proposals := NewProposalService(stores, fakeGate{approved: map[string]bool{"driver-1": true}}, &fakeNotifier{}, nil)
	p, err := proposals.Create(context.Background(), "driver-1", CreateProposalInput{ListingID: listing.ID})
	require.NoError(t, err)
	return &interleavedListings{
		ListingStore: stores.Listings,
		before: func() {
			_, err := proposals.Accept(context.Background(), p.ID, listing.ShipperID)
			require.NoError(t, err)
		},
	}
}

func TestUpdateListingLosesToConcurrentAccept(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()
	l := seedListing(t, stores, "shipper-1", models.ListingActive)

	svc := NewListingService(acceptBetweenReadAndWrite(t, stores, l))
	_, err := svc.Update(ctx, l.ID, "shipper-1", UpdateListingInput{Title: ptr("Canapé d'angle")})
	assert.ErrorIs(t, err, apperrors.ErrListingMatched)

	stored, err := stores.Listings.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingMatched, stored.Status)
	assert.Equal(t, "Sofa", stored.Title)
}

func TestDeleteListingLosesToConcurrentAccept(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()
	l := seedListing(t, stores, "shipper-1", models.ListingActive)

	svc := NewListingService(acceptBetweenReadAndWrite(t, stores, l))
	assert.ErrorIs(t, svc.Delete(ctx, l.ID, "shipper-1"), apperrors.ErrListingMatched)

	stored, err := stores.Listings.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingMatched, stored.Status)
	_, err = stores.Shipments.FindByListing(ctx, l.ID)
	assert.NoError(t, err)
}

func TestUpdateListingKeepsOwnerAndCreation(t *testing.T) {
	stores := newTestStores(t)
	svc := NewListingService(stores.Listings)
	ctx := context.Background()
	l := seedListing(t, stores, "shipper-1", models.ListingActive)

	_, err := svc.Update(ctx, l.ID, "shipper-1", UpdateListingInput{PriceCents: ptr(int64(6000))})
	require.NoError(t, err)

	stored, err := stores.Listings.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "shipper-1", stored.ShipperID)
	assert.True(t, l.CreatedAt.Equal(stored.CreatedAt))
	require.NotNil(t, stored.PriceCents)
	assert.Equal(t, int64(6000), *stored.PriceCents)
	require.NotNil(t, stored.WeightKg)
	assert.Equal(t, 20.0, *stored.WeightKg)
}
