package redis

import (
	"context"
	"testing"
	"time"

	"career-compass/internal/models"
	"career-compass/internal/normalize"
	"career-compass/internal/storage/memory"
	"career-compass/internal/tracker"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client, time.Minute, zap.NewNop()), mr
}

func company(s string) *string { return &s }

func TestPageCache_Generations(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	q := models.Query{}.Normalized()

	v, err := c.PageVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	_, ok := c.GetPage(ctx, v, q)
	assert.False(t, ok)

	page := &models.Page{Items: []models.Application{{ID: "a", Company: company("Acme")}}, Total: 1, Page: 1, PageSize: 10}
	require.NoError(t, c.SetPage(ctx, v, q, page))

	got, ok := c.GetPage(ctx, v, q)
	require.True(t, ok)
	assert.Equal(t, "Acme", *got.Items[0].Company)
	assert.Equal(t, 1, got.Total)

	require.NoError(t, c.InvalidatePages(ctx))
	next, err := c.PageVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	_, ok = c.GetPage(ctx, next, q)
	assert.False(t, ok)
}

func TestPageCache_Expires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	q := models.Query{}.Normalized()

	require.NoError(t, c.SetPage(ctx, 0, q, &models.Page{Page: 1, PageSize: 10}))
	mr.FastForward(2 * time.Minute)

	_, ok := c.GetPage(ctx, 0, q)
	assert.False(t, ok)
}

func TestRateLimitWindow(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for want := int64(1); want <= 3; want++ {
		n, err := c.IncrementClientRateLimit(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// later hits do not extend the window
	assert.Equal(t, RateLimitWindowTTL, mr.TTL(ClientRateLimitKey("10.0.0.1")))

	mr.FastForward(RateLimitWindowTTL + time.Second)
	n, err := c.IncrementClientRateLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.IncrementUserRateLimit(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// renameDuringQuery renames the application after the query has read it, once.
type renameDuringQuery struct {
	*memory.Store
	rename func()
}

func (r *renameDuringQuery) Query(ctx context.Context, q models.Query) (*models.Page, error) {
	page, err := r.Store.Query(ctx, q)
	if r.rename != nil {
		rename := r.rename
		r.rename = nil
		rename()
	}
	return page, err
}

func TestTrackerList_WriteDuringQueryIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	store := &renameDuringQuery{Store: memory.New(zap.NewNop())}
	tr := tracker.New(store, "memory", normalize.New(), zap.NewNop(), tracker.WithCache(c))

	app, err := tr.Create(ctx, normalize.Fields{"company": "Old"})
	require.NoError(t, err)

	store.rename = func() {
		_, err := tr.Update(ctx, normalize.Fields{"app_uuid": app.ID, "company": "New"})
		require.NoError(t, err)
	}

	first, err := tr.List(ctx, models.Query{})
	require.NoError(t, err)
	assert.Equal(t, "Old", *first.Items[0].Company)

	second, err := tr.List(ctx, models.Query{})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "New", *second.Items[0].Company)
}
