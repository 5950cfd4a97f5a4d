package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"career-compass/internal/models"
	"career-compass/internal/storage"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	tick := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	return New(zap.NewNop()).WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	})
}

func seed(t *testing.T, s *Store, rows ...map[string]any) {
	t.Helper()
	for _, row := range rows {
		_, err := s.Insert(context.Background(), row)
		require.NoError(t, err)
	}
}

func ids(p *models.Page) []string {
	return lo.Map(p.Items, func(a models.Application, _ int) string { return a.ID })
}

func TestInsertGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	app, err := s.Insert(ctx, map[string]any{"app_uuid": "a1", "company": "Acme", "priority": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, "Acme", *app.Company)
	assert.False(t, app.CreatedAt.IsZero())

	_, err = s.Insert(ctx, map[string]any{"app_uuid": "a1"})
	se, ok := storage.AsStoreError(err)
	require.True(t, ok)
	assert.Equal(t, "23505", se.Code)

	updated, err := s.Update(ctx, "a1", map[string]any{"role": "SWE", "priority": nil, "app_uuid": "other"})
	require.NoError(t, err)
	assert.Equal(t, "a1", updated.ID)
	assert.Equal(t, "SWE", *updated.Role)
	assert.Nil(t, updated.Priority)
	assert.Equal(t, "Acme", *updated.Company)

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, s.Delete(ctx, "a1"))
	assert.ErrorIs(t, s.Delete(ctx, "a1"), storage.ErrNotFound)

	_, err = s.Get(ctx, "a1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Update(ctx, "a1", map[string]any{"role": "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInsert_UnknownColumn(t *testing.T) {
	_, err := newStore(t).Insert(context.Background(), map[string]any{"app_uuid": "a1", "salary": "1"})
	se, ok := storage.AsStoreError(err)
	require.True(t, ok)
	assert.Equal(t, "42703", se.Code)
}

func TestQuery_SearchAndStatus(t *testing.T) {
	s := newStore(t)
	seed(t, s,
		map[string]any{"app_uuid": "1", "company": "Acme", "status": "Applied"},
		map[string]any{"app_uuid": "2", "company": "Globex", "role": "Acme liaison", "status": "Interview"},
		map[string]any{"app_uuid": "3", "company": "Initech", "next_action": "email ACME", "status": "Applied"},
		map[string]any{"app_uuid": "4", "company": "Umbrella", "notes": "acme in notes is not searched"},
	)

	page, err := s.Query(context.Background(), models.Query{Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, ids(page))

	page, err = s.Query(context.Background(), models.Query{Search: "%acme%", Status: "Applied"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "3"}, ids(page))
}

func TestQuery_SortNullsLast(t *testing.T) {
	s := newStore(t)
	seed(t, s,
		map[string]any{"app_uuid": "a", "due_date": "2025-11-05"},
		map[string]any{"app_uuid": "b"},
		map[string]any{"app_uuid": "c", "due_date": "2025-10-30"},
		map[string]any{"app_uuid": "d"},
		map[string]any{"app_uuid": "e", "due_date": "2025-10-30"},
	)

	page, err := s.Query(context.Background(), models.Query{Sort: models.SortDueDate, Dir: models.Asc})
	require.NoError(t, err)
	// ties fall back to created_at desc
	assert.Equal(t, []string{"e", "c", "a", "d", "b"}, ids(page))

	page, err = s.Query(context.Background(), models.Query{Sort: models.SortDueDate, Dir: models.Desc})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "e", "c", "d", "b"}, ids(page))
}

func TestQuery_DefaultNewestFirst(t *testing.T) {
	s := newStore(t)
	seed(t, s,
		map[string]any{"app_uuid": "old"},
		map[string]any{"app_uuid": "mid"},
		map[string]any{"app_uuid": "new"},
	)

	page, err := s.Query(context.Background(), models.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, ids(page))
}

func TestQuery_Pagination(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 25; i++ {
		seed(t, s, map[string]any{"app_uuid": fmt.Sprintf("id-%02d", i)})
	}

	page, err := s.Query(context.Background(), models.Query{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 3, page.Pages())

	page, err = s.Query(context.Background(), models.Query{Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 25, page.Total)
}

func TestListDue(t *testing.T) {
	s := newStore(t)
	seed(t, s,
		map[string]any{"app_uuid": "late", "due_date": "2025-10-10"},
		map[string]any{"app_uuid": "soon", "due_date": "2025-10-22"},
		map[string]any{"app_uuid": "far", "due_date": "2025-12-01"},
		map[string]any{"app_uuid": "none"},
		map[string]any{"app_uuid": "rejected", "due_date": "2025-10-21", "status": "Rejected"},
	)

	due, err := s.ListDue(context.Background(), models.Day("2025-10-27"))
	require.NoError(t, err)
	assert.Equal(t, []string{"late", "soon"}, lo.Map(due, func(a models.Application, _ int) string { return a.ID }))
}
