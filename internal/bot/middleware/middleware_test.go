package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type fakeContext struct {
	tele.Context
	callback *tele.Callback
	replies  []string
	sent     []string
	alerts   []string
}

func (f *fakeContext) Sender() *tele.User       { return &tele.User{ID: 99} }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: 99} }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Message() *tele.Message   { return &tele.Message{Text: "/due"} }

func (f *fakeContext) Reply(what interface{}, opts ...interface{}) error {
	f.replies = append(f.replies, what.(string))
	return nil
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, what.(string))
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.alerts = append(f.alerts, resp[0].Text)
	return nil
}

type fakeLimiter struct {
	count int64
	err   error
}

func (l *fakeLimiter) IncrementUserRateLimit(context.Context, int64) (int64, error) {
	l.count++
	return l.count, l.err
}

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	calls := 0
	h := RateLimit(limiter, 2, zap.NewNop())(func(tele.Context) error {
		calls++
		return nil
	})

	c := &fakeContext{}
	for i := 0; i < 3; i++ {
		require.NoError(t, h(c))
	}

	assert.Equal(t, 2, calls)
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "Too many requests")
}

func TestRateLimit_CallbackGetsAlert(t *testing.T) {
	limiter := &fakeLimiter{count: 10}
	h := RateLimit(limiter, 1, zap.NewNop())(func(tele.Context) error { return nil })

	c := &fakeContext{callback: &tele.Callback{Data: "\fnoop"}}
	require.NoError(t, h(c))
	require.Len(t, c.alerts, 1)
	assert.Empty(t, c.replies)
}

func TestRateLimit_LimiterErrorPassesThrough(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	called := false
	h := RateLimit(limiter, 1, zap.NewNop())(func(tele.Context) error {
		called = true
		return nil
	})

	require.NoError(t, h(&fakeContext{}))
	assert.True(t, called)
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(func(tele.Context) error {
		panic("boom")
	})

	c := &fakeContext{}
	require.NoError(t, h(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Something went wrong")
}

func TestLogger_PassesError(t *testing.T) {
	want := errors.New("handler failed")
	h := Logger(zap.NewNop())(func(tele.Context) error { return want })

	assert.ErrorIs(t, h(&fakeContext{}), want)
}
