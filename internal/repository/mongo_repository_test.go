package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/colib/colib-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, e := range mt.GetAllStartedEvents() {
		names = append(names, e.CommandName)
	}
	return names
}

func TestMongoShipmentCreateDuplicateKey(t *testing.T) {
	mt := newMockT(t)

	mt.Run("duplicate listing", func(mt *mtest.T) {
		repo := NewShipmentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: colib.shipments index: listing_id_1",
		}))

		err := repo.Create(context.Background(), &models.Shipment{ID: "S2", ListingID: "L1", Status: models.ShipmentCreated})
		assert.ErrorIs(mt, err, ErrDuplicateKey)
	})

	mt.Run("other write error passes through", func(mt *mtest.T) {
		repo := NewShipmentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "Document failed validation"}))

		err := repo.Create(context.Background(), &models.Shipment{ID: "S3", ListingID: "L2"})
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, ErrDuplicateKey))
	})

	mt.Run("insert ok", func(mt *mtest.T) {
		repo := NewShipmentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Create(context.Background(), &models.Shipment{ID: "S1", ListingID: "L1"}))
	})
}

func TestMongoCompareAndSetStatus(t *testing.T) {
	mt := newMockT(t)

	mt.Run("status already moved", func(mt *mtest.T) {
		repo := NewShipmentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		ok, err := repo.CompareAndSetStatus(context.Background(), "S1", models.ShipmentCreated, models.ShipmentPickupScheduled)
		require.NoError(mt, err)
		assert.False(mt, ok)

		q := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("q")
		assert.Equal(mt, "S1", q.Document().Lookup("_id").StringValue())
		assert.Equal(mt, string(models.ShipmentCreated), q.Document().Lookup("status").StringValue())
	})

	mt.Run("status moved", func(mt *mtest.T) {
		repo := NewShipmentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		ok, err := repo.CompareAndSetStatus(context.Background(), "S1", models.ShipmentCreated, models.ShipmentPickupScheduled)
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("proposal already decided", func(mt *mtest.T) {
		repo := NewProposalRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		ok, err := repo.CompareAndSetStatus(context.Background(), "P1", models.ProposalPending, models.ProposalAccepted)
		require.NoError(mt, err)
		assert.False(mt, ok)
	})
}

func proposalDoc(id, listingID, driverID string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "listing_id", Value: listingID},
		{Key: "driver_id", Value: driverID},
		{Key: "shipper_id", Value: "shipper-1"},
		{Key: "status", Value: string(models.ProposalPending)},
		{Key: "created_at", Value: time.Now().UTC()},
		{Key: "updated_at", Value: time.Now().UTC()},
	}
}

func TestMongoRejectPendingExcept(t *testing.T) {
	mt := newMockT(t)

	mt.Run("rejects the pending siblings", func(mt *mtest.T) {
		repo := NewProposalRepository(mt.DB)
		ns := mt.DB.Name() + ".proposals"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				proposalDoc("P2", "L1", "driver-2"),
				proposalDoc("P3", "L1", "driver-3"),
			),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 2}),
		)

		rejected, err := repo.RejectPendingExcept(context.Background(), "L1", "P1")
		require.NoError(mt, err)
		require.Len(mt, rejected, 2)
		assert.Equal(mt, "P2", rejected[0].ID)
		assert.Equal(mt, "driver-3", rejected[1].DriverID)
		for _, p := range rejected {
			assert.Equal(mt, models.ProposalRejected, p.Status)
		}
		assert.Equal(mt, []string{"find", "update"}, commandNames(mt))

		find := mt.GetAllStartedEvents()[0].Command
		assert.Equal(mt, "P1", find.Lookup("filter", "_id", "$ne").StringValue())
		assert.Equal(mt, string(models.ProposalPending), find.Lookup("filter", "status").StringValue())
	})

	mt.Run("nothing pending", func(mt *mtest.T) {
		repo := NewProposalRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".proposals", mtest.FirstBatch))

		rejected, err := repo.RejectPendingExcept(context.Background(), "L1", "P1")
		require.NoError(mt, err)
		assert.Empty(mt, rejected)
		assert.Equal(mt, []string{"find"}, commandNames(mt))
	})
}

func TestMongoListingWritesRequireEditableStatus(t *testing.T) {
	mt := newMockT(t)

	mt.Run("update refused once matched", func(mt *mtest.T) {
		repo := NewListingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		l := &models.Listing{ID: "L1", ShipperID: "shipper-1", Title: "Armoire", Status: models.ListingActive}
		assert.ErrorIs(mt, repo.Update(context.Background(), l), ErrStateChanged)

		update := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document()
		var statuses []string
		inValues, inErr := update.Lookup("q", "status", "$in").Array().Values()
		require.NoError(mt, inErr)
		for _, v := range inValues {
			statuses = append(statuses, v.StringValue())
		}
		assert.ElementsMatch(mt, []string{"active", "inactive"}, statuses)

		set := update.Lookup("u", "$set").Document()
		assert.Equal(mt, "Armoire", set.Lookup("title").StringValue())
		_, err := set.LookupErr("shipper_id")
		assert.Error(mt, err, "owner is never rewritten")
		_, err = set.LookupErr("created_at")
		assert.Error(mt, err)
	})

	mt.Run("delete refused once matched", func(mt *mtest.T) {
		repo := NewListingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(context.Background(), "L1"), ErrStateChanged)
	})

	mt.Run("delete while active", func(mt *mtest.T) {
		repo := NewListingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, repo.Delete(context.Background(), "L1"))
	})
}

func TestMongoRunInTx(t *testing.T) {
	mt := newMockT(t)

	mt.Run("commits", func(mt *mtest.T) {
		tm := NewMongoTxManager(mt.Client)
		repo := NewShipmentEventRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)

		err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
			require.NotNil(mt, mongo.SessionFromContext(ctx))
			return repo.Append(ctx, &models.ShipmentEvent{ID: "E1", ShipmentID: "S1", Type: models.EventShipmentCreated})
		})
		require.NoError(mt, err)
		assert.Equal(mt, []string{"insert", "commitTransaction"}, commandNames(mt))
	})

	mt.Run("aborts on error", func(mt *mtest.T) {
		tm := NewMongoTxManager(mt.Client)
		repo := NewShipmentEventRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)
		boom := errors.New("listing vanished")

		err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
			if err := repo.Append(ctx, &models.ShipmentEvent{ID: "E1", ShipmentID: "S1", Type: models.EventShipmentCreated}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(mt, err, boom)
		assert.Equal(mt, []string{"insert", "abortTransaction"}, commandNames(mt))
	})

	mt.Run("joins an outer session", func(mt *mtest.T) {
		tm := NewMongoTxManager(mt.Client)
		sess, err := mt.Client.StartSession()
		require.NoError(mt, err)
		defer sess.EndSession(context.Background())

		calls := 0
		outer := mongo.NewSessionContext(context.Background(), sess)
		require.NoError(mt, tm.RunInTx(outer, func(ctx context.Context) error {
			calls++
			assert.Equal(mt, sess, mongo.SessionFromContext(ctx))
			return nil
		}))
		assert.Equal(mt, 1, calls)
		assert.Empty(mt, commandNames(mt))
	})
}
