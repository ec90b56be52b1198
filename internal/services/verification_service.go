package services

import (
	"context"
	"errors"
	"time"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/pkg/logger"
)

const maxReviewQueue = 100

// VerificationGate answers whether a user may act in a role.
type VerificationGate interface {
	IsApproved(ctx context.Context, userID string, role models.Role) (bool, error)
}

// SubmitVerificationInput is the body of PUT /me/verification.
type SubmitVerificationInput struct {
	Role          models.Role `json:"role" validate:"required,oneof=shipper driver"`
	IDDocURL      *string     `json:"id_doc_url" validate:"omitempty,url"`
	VehicleDocURL *string     `json:"vehicle_doc_url" validate:"omitempty,url"`
}

// ReviewInput is the body of the admin review route.
type ReviewInput struct {
	Approve *bool   `json:"approve" validate:"required"`
	Note    *string `json:"note" validate:"omitempty,max=500"`
}

type VerificationService struct {
	repo     repository.VerificationStore
	notifier Notifier
}

func NewVerificationService(repo repository.VerificationStore, notifier Notifier) *VerificationService {
	return &VerificationService{repo: repo, notifier: notifier}
}

// IsApproved reports whether the user holds an approved verification for role.
func (s *VerificationService) IsApproved(ctx context.Context, userID string, role models.Role) (bool, error) {
	v, err := s.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Internal(err)
	}
	return v.Role == role && v.Status == models.VerificationApproved, nil
}

// Get returns the user's own verification record.
func (s *VerificationService) Get(ctx context.Context, userID string) (*models.ProfileVerification, error) {
	v, err := s.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrVerificationMissing
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return v, nil
}

// Submit (re)opens the user's verification for review.
func (s *VerificationService) Submit(ctx context.Context, userID string, input SubmitVerificationInput) (*models.ProfileVerification, error) {
	now := time.Now().UTC()
	v := &models.ProfileVerification{
		UserID:        userID,
		Role:          input.Role,
		Status:        models.VerificationPending,
		IDDocURL:      input.IDDocURL,
		VehicleDocURL: input.VehicleDocURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	existing, err := s.repo.Get(ctx, userID)
	switch {
	case err == nil:
		v.CreatedAt = existing.CreatedAt
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.Upsert(ctx, v); err != nil {
		return nil, apperrors.Internal(err)
	}
	logger.Log.WithField("user_id", userID).Info("Verification submitted")
	return v, nil
}

// ListPending returns the review queue, oldest first.
func (s *VerificationService) ListPending(ctx context.Context, limit int) ([]models.ProfileVerification, error) {
	if limit <= 0 || limit > maxReviewQueue {
		limit = maxReviewQueue
	}
	list, err := s.repo.ListByStatus(ctx, models.VerificationPending, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return list, nil
}

// Review approves or rejects a pending verification and tells the user.
func (s *VerificationService) Review(ctx context.Context, reviewerID, userID string, approve bool, note *string) (*models.ProfileVerification, error) {
	v, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if v.Status != models.VerificationPending {
		return nil, apperrors.ErrNotPendingReview
	}

	now := time.Now().UTC()
	v.Status = models.VerificationRejected
	if approve {
		v.Status = models.VerificationApproved
	}
	v.ReviewedBy = &reviewerID
	v.ReviewNote = note
	v.ReviewedAt = &now
	v.UpdatedAt = now

	if err := s.repo.Upsert(ctx, v); err != nil {
		return nil, apperrors.Internal(err)
	}

	if approve {
		s.notifier.CreateAndPush(ctx, userID, models.NotifVerificationApproved,
			"Profil vérifié", "Votre profil a été vérifié.", map[string]interface{}{"role": string(v.Role)})
	} else {
		s.notifier.CreateAndPush(ctx, userID, models.NotifVerificationRejected,
			"Vérification refusée", models.StringValue(note), map[string]interface{}{"role": string(v.Role)})
	}

	logger.Log.WithField("user_id", userID).WithField("status", v.Status).Info("Verification reviewed")
	return v, nil
}
