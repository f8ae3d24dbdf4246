package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunsJobImmediately(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	done := make(chan struct{})

	s := NewIntervalScheduler(time.Hour, 0, nil)
	err := s.Start(context.Background(), func(time.Time) error {
		if runs.Add(1) == 1 {
			close(done)
		}
		return nil
	})
	require.NoError(t, err)
	defer s.Stop(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first run did not fire immediately")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestStartTicksOnInterval(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	done := make(chan struct{})

	s := NewIntervalScheduler(20*time.Millisecond, 0, nil)
	err := s.Start(context.Background(), func(time.Time) error {
		if runs.Add(1) == 3 {
			close(done)
		}
		return nil
	})
	require.NoError(t, err)
	defer s.Stop(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not tick")
	}
}

func TestFailedRunDoesNotStopScheduler(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	done := make(chan struct{})

	s := NewIntervalScheduler(20*time.Millisecond, 0, nil)
	err := s.Start(context.Background(), func(time.Time) error {
		if runs.Add(1) == 2 {
			close(done)
		}
		return errors.New("run failed")
	})
	require.NoError(t, err)
	defer s.Stop(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stopped after a failed run")
	}
}

func TestStartWithoutJob(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour, 0, nil)
	require.NoError(t, s.Start(context.Background(), nil))
	require.NoError(t, s.Stop(context.Background()))
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour, 0, nil)
	require.NoError(t, s.Start(context.Background(), func(time.Time) error { return nil }))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestContextCancellationStopsLoop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	s := NewIntervalScheduler(20*time.Millisecond, 0, nil)
	require.NoError(t, s.Start(ctx, func(time.Time) error {
		runs.Add(1)
		return nil
	}))

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	frozen := runs.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, frozen, runs.Load(), "job must not run after cancellation")
}
