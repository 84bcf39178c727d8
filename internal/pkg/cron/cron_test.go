package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobOnInterval(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Register(Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	require.Eventually(t, func() bool { return runs.Load() >= 2 },
		time.Second, 5*time.Millisecond)
}

func TestManualRunAndStatus(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "flaky",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			return errors.New("boom")
		},
	})

	require.NoError(t, s.Run(context.Background(), "flaky"))
	require.Eventually(t, func() bool {
		for _, item := range s.List() {
			if item.Name == "flaky" && item.Status == StatusReject {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, "boom", items[0].Message)
	assert.NotNil(t, items[0].LastRunAt)

	assert.Error(t, s.Run(context.Background(), "missing"))
}
