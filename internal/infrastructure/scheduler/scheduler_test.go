package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, "poll", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("imap down")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	boom := errors.New("imap down")
	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, "poll", func(ctx context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, "poll", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("imap down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestScheduler_Next(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	s, err := New(Config{Spec: "0 20 * * *", Location: moscow})
	require.NoError(t, err)

	before := time.Date(2024, 5, 1, 19, 59, 0, 0, moscow)
	assert.True(t, s.Next(before).Equal(time.Date(2024, 5, 1, 20, 0, 0, 0, moscow)))

	after := time.Date(2024, 5, 1, 20, 0, 0, 0, moscow)
	assert.True(t, s.Next(after).Equal(time.Date(2024, 5, 2, 20, 0, 0, 0, moscow)))

	// UTC vaqt ham Moskva bo'yicha hisoblanadi
	utc := time.Date(2024, 5, 1, 16, 30, 0, 0, time.UTC)
	assert.True(t, s.Next(utc).Equal(time.Date(2024, 5, 1, 20, 0, 0, 0, moscow)))
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(Config{Spec: "every day"})
	assert.Error(t, err)
}

func TestScheduler_AddStartStop(t *testing.T) {
	s, err := New(Config{Spec: "@every 1h", Attempts: 1})
	require.NoError(t, err)

	require.NoError(t, s.Add(context.Background(), "poll", func(ctx context.Context) error { return nil }))
	s.Start()
	s.Stop()
}
