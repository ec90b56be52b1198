package services

import (
	"context"
	"testing"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsApproved(t *testing.T) {
	stores := newTestStores(t)
	notifier := &fakeNotifier{}
	svc := NewVerificationService(stores.Verifications, notifier)
	ctx := context.Background()

	ok, err := svc.IsApproved(ctx, "nobody", models.RoleDriver)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Submit(ctx, "driver-1", SubmitVerificationInput{Role: models.RoleDriver})
	require.NoError(t, err)

	ok, err = svc.IsApproved(ctx, "driver-1", models.RoleDriver)
	require.NoError(t, err)
	assert.False(t, ok, "pending is not approved")

	_, err = svc.Review(ctx, "admin-1", "driver-1", true, nil)
	require.NoError(t, err)

	ok, err = svc.IsApproved(ctx, "driver-1", models.RoleDriver)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsApproved(ctx, "driver-1", models.RoleShipper)
	require.NoError(t, err)
	assert.False(t, ok, "role must match")
}

func TestReviewVerification(t *testing.T) {
	stores := newTestStores(t)
	notifier := &fakeNotifier{}
	svc := NewVerificationService(stores.Verifications, notifier)
	ctx := context.Background()

	_, err := svc.Review(ctx, "admin-1", "ghost", true, nil)
	assert.ErrorIs(t, err, apperrors.ErrVerificationMissing)

	_, err = svc.Submit(ctx, "driver-1", SubmitVerificationInput{Role: models.RoleDriver, IDDocURL: ptr("https://docs/id.png")})
	require.NoError(t, err)

	pending, err := svc.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "driver-1", pending[0].UserID)

	v, err := svc.Review(ctx, "admin-1", "driver-1", false, ptr("Document illisible"))
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, v.Status)
	require.NotNil(t, v.ReviewedBy)
	assert.Equal(t, "admin-1", *v.ReviewedBy)

	_, err = svc.Review(ctx, "admin-1", "driver-1", true, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotPendingReview)

	sent := notifier.forUser("driver-1")
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotifVerificationRejected, sent[0].Type)

	// Resubmitting reopens the review and clears the previous decision.
	v, err = svc.Submit(ctx, "driver-1", SubmitVerificationInput{Role: models.RoleDriver})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationPending, v.Status)

	stored, err := svc.Get(ctx, "driver-1")
	require.NoError(t, err)
	assert.Nil(t, stored.ReviewedBy)
	assert.Equal(t, models.VerificationPending, stored.Status)
}
