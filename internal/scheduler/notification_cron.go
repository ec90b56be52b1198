package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// PickupReminderJob scans for pickups due soon.
type PickupReminderJob interface {
	Run(ctx context.Context) error
}

// NotificationCleaner purges expired notifications.
type NotificationCleaner interface {
	DeleteExpired(ctx context.Context) error
}

// StartNotificationCronJobs schedules the reminder and cleanup jobs. The
// caller stops the returned scheduler on shutdown.
func StartNotificationCronJobs(reminder PickupReminderJob, cleaner NotificationCleaner) (*cron.Cron, error) {
	c := cron.New()

	// Pickups due in the next 24h
	if _, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := reminder.Run(ctx); err != nil {
			logrus.WithError(err).Error("PickupReminder failed")
		}
	}); err != nil {
		return nil, err
	}

	// Expired notifications
	if _, err := c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := cleaner.DeleteExpired(ctx); err != nil {
			logrus.WithError(err).Error("DeleteExpired failed")
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
