package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"career-compass/internal/models"
	"career-compass/internal/storage"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Store keeps applications in process memory.
type Store struct {
	mu     sync.RWMutex
	apps   map[string]models.Application
	now    func() time.Time
	logger *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{
		apps:   make(map[string]models.Application),
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the created_at clock.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Insert(ctx context.Context, values map[string]any) (*models.Application, error) {
	id, _ := values[models.FieldID].(string)
	if id == "" {
		return nil, &storage.StoreError{Code: "23502", Message: `null value in column "app_uuid" violates not-null constraint`}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.apps[id]; exists {
		return nil, &storage.StoreError{
			Code:    "23505",
			Message: `duplicate key value violates unique constraint "applications_pkey"`,
			Detail:  fmt.Sprintf("Key (app_uuid)=(%s) already exists.", id),
		}
	}

	app := models.Application{CreatedAt: s.now().UTC()}
	if err := apply(&app, values); err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}

	s.apps[id] = app
	s.logger.Debug("application inserted", zap.String("app_uuid", id))

	return &app, nil
}

func (s *Store) Update(ctx context.Context, id string, values map[string]any) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	// identifier is immutable
	if err := apply(&app, lo.OmitByKeys(values, []string{models.FieldID})); err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}

	s.apps[id] = app
	return &app, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.apps, id)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &app, nil
}

func (s *Store) Query(ctx context.Context, q models.Query) (*models.Page, error) {
	q = q.Normalized()

	s.mu.RLock()
	matched := lo.Filter(lo.Values(s.apps), func(a models.Application, _ int) bool {
		return matches(a, q)
	})
	s.mu.RUnlock()

	sortApplications(matched, q.Sort, q.Dir)

	page := &models.Page{Total: len(matched), Page: q.Page, PageSize: q.PageSize, Items: []models.Application{}}
	if start := q.Offset(); start < len(matched) {
		end := min(start+q.PageSize, len(matched))
		page.Items = matched[start:end]
	}

	return page, nil
}

// ListDue returns applications due on or before until, skipping rejected ones.
func (s *Store) ListDue(ctx context.Context, until models.Day) ([]models.Application, error) {
	s.mu.RLock()
	due := lo.Filter(lo.Values(s.apps), func(a models.Application, _ int) bool {
		if a.DueDate == nil || *a.DueDate > until {
			return false
		}
		return a.Status == nil || *a.Status != models.StatusRejected
	})
	s.mu.RUnlock()

	sortApplications(due, models.SortDueDate, models.Asc)
	return due, nil
}

func apply(app *models.Application, values map[string]any) error {
	for col, v := range values {
		if err := app.Set(col, v); err != nil {
			return &storage.StoreError{Code: "42703", Message: err.Error()}
		}
	}
	return nil
}

func matches(a models.Application, q models.Query) bool {
	if q.Status != "" && (a.Status == nil || *a.Status != q.Status) {
		return false
	}
	if q.Search == "" {
		return true
	}

	term := strings.ToLower(q.Search)
	return lo.SomeBy(models.SearchColumns, func(col string) bool {
		return strings.Contains(strings.ToLower(a.Text(col)), term)
	})
}

// sortApplications orders by key with nulls last, then created_at desc, then app_uuid.
func sortApplications(apps []models.Application, key models.SortKey, dir models.Direction) {
	sort.SliceStable(apps, func(i, j int) bool {
		a, b := apps[i], apps[j]

		if c := compareKey(a, b, key, dir); c != 0 {
			return c < 0
		}
		if key != models.SortCreatedAt {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

func compareKey(a, b models.Application, key models.SortKey, dir models.Direction) int {
	if key == models.SortCreatedAt {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if dir == models.Desc {
			c = -c
		}
		return c
	}

	av, bv := a.Text(string(key)), b.Text(string(key))
	switch {
	case av == "" && bv == "":
		return 0
	case av == "":
		return 1
	case bv == "":
		return -1
	}

	c := strings.Compare(av, bv)
	if dir == models.Desc {
		c = -c
	}
	return c
}
