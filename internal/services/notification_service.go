package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/push"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	notificationTTL          = 30 * 24 * time.Hour
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// Notifier is the dispatch side of NotificationService that business flows use.
type Notifier interface {
	CreateAndPush(ctx context.Context, userID, notifType, title, body string, data map[string]interface{})
}

type NotificationService struct {
	repo    repository.NotificationStore
	devices repository.DeviceStore
	sender  push.Sender
}

func NewNotificationService(repo repository.NotificationStore, devices repository.DeviceStore, sender push.Sender) *NotificationService {
	return &NotificationService{
		repo:    repo,
		devices: devices,
		sender:  sender,
	}
}

// CreateAndPush stores an in-app notification and pushes it to every device of
// the user. Failures are logged and never returned.
func (s *NotificationService) CreateAndPush(ctx context.Context, userID, notifType, title, body string, data map[string]interface{}) {
	log := logger.Log.WithFields(logrus.Fields{"user_id": userID, "type": notifType})

	now := time.Now().UTC()
	notif := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(notificationTTL),
	}
	if body != "" {
		notif.Body = &body
	}
	if err := s.repo.Create(ctx, notif); err != nil {
		log.WithError(err).Warn("Failed to store notification")
	}

	tokens, err := s.devices.TokensForUser(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to load device tokens")
		return
	}
	if len(tokens) == 0 || s.sender == nil {
		return
	}

	payload := map[string]interface{}{"type": notifType}
	for k, v := range data {
		payload[k] = v
	}
	messages := make([]push.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, push.Message{
			To:    token,
			Title: title,
			Body:  body,
			Data:  payload,
			Sound: "default",
		})
	}

	res := s.sender.Send(ctx, messages)
	if res.Failed > 0 {
		log.WithFields(logrus.Fields{"sent": res.Success, "failed": res.Failed}).Warn("Some push messages failed")
		return
	}
	log.WithField("sent", res.Success).Debug("Push messages sent")
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	notifs, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return notifs, nil
}

// MarkAsRead flags one of the user's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrNotificationMissing
		}
		return apperrors.Internal(err)
	}
	return nil
}

// RegisterDevice attaches an Expo push token to the user.
func (s *NotificationService) RegisterDevice(ctx context.Context, userID, token string) (*models.DeviceToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.Validation("Expo push token required", nil)
	}

	now := time.Now().UTC()
	device := &models.DeviceToken{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.devices.Upsert(ctx, device); err != nil {
		return nil, apperrors.Internal(err)
	}
	return device, nil
}

// DeleteExpired removes notifications past their expiry.
func (s *NotificationService) DeleteExpired(ctx context.Context) error {
	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	logger.Log.WithField("deleted", n).Info("Expired notifications removed")
	return nil
}
