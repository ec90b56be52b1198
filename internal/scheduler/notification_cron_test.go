package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopJob struct{}

func (noopJob) Run(context.Context) error           { return nil }
func (noopJob) DeleteExpired(context.Context) error { return nil }

func TestStartNotificationCronJobs(t *testing.T) {
	c, err := StartNotificationCronJobs(noopJob{}, noopJob{})
	require.NoError(t, err)
	defer c.Stop()

	entries := c.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Next.IsZero())
	}
}
