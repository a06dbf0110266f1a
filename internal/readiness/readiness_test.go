package readiness_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mpc-backend/internal/readiness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleep struct {
	calls []time.Duration
}

func (s *recordedSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func TestProbe_SucceedsAfterRetries(t *testing.T) {
	sleeper := &recordedSleep{}
	policy := readiness.Policy{Attempts: 10, Interval: 2 * time.Second, Sleep: sleeper.Sleep}

	calls := 0
	err := policy.Probe(context.Background(), "postgres", func(ctx context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}, sleeper.calls)
}

func TestProbe_Exhausted(t *testing.T) {
	sleeper := &recordedSleep{}
	policy := readiness.Policy{Attempts: 3, Interval: time.Second, Sleep: sleeper.Sleep}

	checkErr := errors.New("connection refused")
	calls := 0
	err := policy.Probe(context.Background(), "postgres", func(ctx context.Context) error {
		calls++
		return checkErr
	})

	assert.ErrorIs(t, err, readiness.ErrNotReady)
	assert.ErrorIs(t, err, checkErr)
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.calls, 2, "no sleep after the last attempt")
}

func TestProbe_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := readiness.Policy{Attempts: 5, Interval: time.Hour}
	err := policy.Probe(ctx, "postgres", func(ctx context.Context) error {
		return errors.New("down")
	})

	assert.ErrorIs(t, err, readiness.ErrNotReady)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultPolicy(t *testing.T) {
	policy := readiness.DefaultPolicy()
	assert.Equal(t, 10, policy.Attempts)
	assert.Equal(t, 2*time.Second, policy.Interval)
}

func TestOnce(t *testing.T) {
	err := readiness.Once(context.Background(), time.Second, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	checkErr := errors.New("down")
	err = readiness.Once(context.Background(), time.Second, func(ctx context.Context) error {
		return checkErr
	})
	assert.ErrorIs(t, err, checkErr)

	start := time.Now()
	err = readiness.Once(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
