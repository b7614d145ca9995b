package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_FiresOnSchedule(t *testing.T) {
	var runs atomic.Int32
	s := New(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, "@every 1s") }()

	<-ctx.Done()
	require.NoError(t, <-done)

	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestScheduler_InvalidCronExpression(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil }, nil)

	err := s.Start(context.Background(), "not a cron expression")
	assert.Error(t, err)
}

func TestScheduler_RunErrorDoesNotStopSchedule(t *testing.T) {
	var runs atomic.Int32
	s := New(func(ctx context.Context) error {
		runs.Add(1)
		return assert.AnError
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, "@every 1s") }()

	<-ctx.Done()
	require.NoError(t, <-done)

	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestScheduler_StartTwiceFails(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, "@every 1h") }()

	time.Sleep(50 * time.Millisecond)
	err := s.Start(context.Background(), "@every 1h")
	assert.Error(t, err)

	cancel()
	require.NoError(t, <-done)
}
