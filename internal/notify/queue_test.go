package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndActive(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	first := q.Success("Application added")
	second := q.Push("Heads up", Warning, time.Minute)

	active := q.Active()
	require.Len(t, active, 2)
	assert.Equal(t, first, active[0].ID)
	assert.Equal(t, Success, active[0].Variant)
	assert.Equal(t, second, active[1].ID)
	assert.Equal(t, "Heads up", active[1].Message)
	assert.Equal(t, DefaultDuration, active[0].ExpiresAt.Sub(active[0].CreatedAt))
}

func TestErrorDuration(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	q.Error("boom")
	n := q.Active()[0]
	assert.Equal(t, Error, n.Variant)
	assert.Equal(t, ErrorDuration, n.ExpiresAt.Sub(n.CreatedAt))
}

func TestExpiry(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	q.Push("short", Info, 20*time.Millisecond)
	q.Push("long", Info, time.Minute)

	assert.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)

	active := q.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "long", active[0].Message)
}

func TestActiveHidesExpiredBeforeSweep(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	current := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
	q.mu.Lock()
	q.now = func() time.Time { return current }
	q.mu.Unlock()

	q.Push("hello", Info, time.Second)
	assert.Len(t, q.Active(), 1)

	q.mu.Lock()
	current = current.Add(2 * time.Second)
	q.mu.Unlock()
	assert.Empty(t, q.Active())
}

func TestDismiss(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	id := q.Info("hello")
	assert.True(t, q.Dismiss(id))
	assert.False(t, q.Dismiss(id))
	assert.Empty(t, q.Active())
}

func TestTrack(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	var duringRun []Notification
	err := q.Track(context.Background(), "Deleting…", "Deleted", "Delete failed", func(ctx context.Context) error {
		duringRun = q.Active()
		return nil
	})
	require.NoError(t, err)

	require.Len(t, duringRun, 1)
	assert.Equal(t, "Deleting…", duringRun[0].Message)
	assert.Equal(t, LoadingDuration, duringRun[0].ExpiresAt.Sub(duringRun[0].CreatedAt))

	active := q.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Deleted", active[0].Message)
	assert.Equal(t, Success, active[0].Variant)
}

func TestTrack_Failure(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	failure := errors.New("network down")
	err := q.Track(context.Background(), "Saving…", "Saved", "", func(ctx context.Context) error {
		return failure
	})
	require.ErrorIs(t, err, failure)

	active := q.Active()
	require.Len(t, active, 1)
	assert.Equal(t, Error, active[0].Variant)
	assert.Equal(t, "network down", active[0].Message)
}

func TestClose_Idempotent(t *testing.T) {
	q := NewQueue()
	q.Close()
	q.Close()
}
