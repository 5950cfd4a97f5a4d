package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"career-compass/internal/metrics"
	"career-compass/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type recordingSender struct {
	mu       sync.Mutex
	chats    []int64
	messages []string
	failFor  map[int64]bool
}

func (s *recordingSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := to.(*tele.Chat)
	if s.failFor[chat.ID] {
		return nil, errors.New("chat not found")
	}
	s.chats = append(s.chats, chat.ID)
	s.messages = append(s.messages, what.(string))
	return &tele.Message{}, nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

type staticDue struct {
	items []models.DueItem
	err   error
	calls int
}

func (d *staticDue) Due(context.Context, time.Time, int) ([]models.DueItem, error) {
	d.calls++
	return d.items, d.err
}

func company(name string) *string { return &name }

func newTestReminder(sender Sender, due DueLister, chats []int64) *DueReminder {
	r := New(sender, due, chats, time.Hour, 7, zap.NewNop())
	r.pause = 0
	r.delay = 0
	return r
}

func TestSendDigest(t *testing.T) {
	sender := &recordingSender{}
	due := &staticDue{items: []models.DueItem{
		{Application: models.Application{ID: "a", Company: company("Acme")}, Proximity: models.ProximityOverdue, Days: -2},
	}}
	r := newTestReminder(sender, due, []int64{1, 2})

	before := testutil.ToFloat64(metrics.RemindersSent)
	sent, err := r.SendDigest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, []int64{1, 2}, sender.chats)
	assert.Contains(t, sender.messages[0], "Overdue")
	assert.Contains(t, sender.messages[0], "Acme")
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.RemindersSent))
}

func TestSendDigest_NothingDue(t *testing.T) {
	sender := &recordingSender{}
	r := newTestReminder(sender, &staticDue{}, []int64{1})

	sent, err := r.SendDigest(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sender.chats)
}

func TestSendDigest_PartialFailure(t *testing.T) {
	sender := &recordingSender{failFor: map[int64]bool{1: true}}
	due := &staticDue{items: []models.DueItem{
		{Application: models.Application{ID: "a"}, Proximity: models.ProximityToday},
	}}
	r := newTestReminder(sender, due, []int64{1, 2})

	sent, err := r.SendDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{2}, sender.chats)
}

func TestSendDigest_AllFail(t *testing.T) {
	sender := &recordingSender{failFor: map[int64]bool{1: true}}
	due := &staticDue{items: []models.DueItem{
		{Application: models.Application{ID: "a"}, Proximity: models.ProximityToday},
	}}
	r := newTestReminder(sender, due, []int64{1})

	_, err := r.SendDigest(context.Background())
	require.Error(t, err)
}

func TestSendDigest_TrackerError(t *testing.T) {
	r := newTestReminder(&recordingSender{}, &staticDue{err: errors.New("db down")}, []int64{1})

	_, err := r.SendDigest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list due")
}

func TestStart_SendsUntilCancelled(t *testing.T) {
	sender := &recordingSender{}
	due := &staticDue{items: []models.DueItem{
		{Application: models.Application{ID: "a"}, Proximity: models.ProximitySoon, Days: 3},
	}}
	r := newTestReminder(sender, due, []int64{1})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sender.count() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reminder did not stop")
	}
}
