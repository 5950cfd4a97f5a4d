package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"career-compass/internal/metrics"
	"career-compass/internal/models"
	"career-compass/internal/normalize"
	"career-compass/internal/optimistic"
	"career-compass/internal/storage"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Store persists applications. Values maps column names to new values; nil clears a column.
type Store interface {
	Insert(ctx context.Context, values map[string]any) (*models.Application, error)
	Update(ctx context.Context, id string, values map[string]any) (*models.Application, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Application, error)
	Query(ctx context.Context, q models.Query) (*models.Page, error)
	ListDue(ctx context.Context, until models.Day) ([]models.Application, error)
}

// PageCache holds recently listed pages per generation. A page must be stored
// under the generation read before it was queried. Failures are not fatal to callers.
type PageCache interface {
	PageVersion(ctx context.Context) (int64, error)
	GetPage(ctx context.Context, version int64, q models.Query) (*models.Page, bool)
	SetPage(ctx context.Context, version int64, q models.Query, page *models.Page) error
	InvalidatePages(ctx context.Context) error
}

type Notifier interface {
	Success(message string) int64
	Error(message string) int64
}

type Tracker struct {
	store      Store
	backend    string
	normalizer *normalize.Normalizer
	cache      PageCache
	notifier   Notifier
	logger     *zap.Logger
}

type Option func(*Tracker)

func WithCache(c PageCache) Option {
	return func(t *Tracker) {
		t.cache = c
	}
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) {
		t.notifier = n
	}
}

func New(store Store, backend string, normalizer *normalize.Normalizer, logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:      store,
		backend:    backend,
		normalizer: normalizer,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create normalizes fields as a new record and inserts it.
func (t *Tracker) Create(ctx context.Context, fields normalize.Fields) (*models.Application, error) {
	patch, err := t.normalizer.BuildInsert(fields)
	metrics.ObserveNormalize("insert", err)
	if err != nil {
		t.notifyError("Error adding application")
		return nil, err
	}

	start := time.Now()
	app, err := t.store.Insert(ctx, patch.Values())
	metrics.ObserveStore(t.backend, "insert", start, err)
	if err != nil {
		t.logger.Error("failed to create application",
			zap.String("app_uuid", patch.ID),
			zap.Error(err),
		)
		t.notifyError("Error adding application")
		return nil, err
	}

	t.invalidate(ctx)
	t.notifySuccess("Application added")

	return app, nil
}

// Update runs the normalization pipeline and applies the patch by identifier.
func (t *Tracker) Update(ctx context.Context, fields normalize.Fields) (*models.Application, error) {
	patch, err := t.normalizer.Build(fields)
	metrics.ObserveNormalize("update", err)
	if err != nil {
		t.notifyError("Error updating: " + UserMessage(err))
		return nil, err
	}

	start := time.Now()
	app, err := t.store.Update(ctx, patch.ID, patch.Values())
	metrics.ObserveStore(t.backend, "update", start, err)
	if err != nil {
		t.logger.Error("failed to update application",
			zap.String("app_uuid", patch.ID),
			zap.Strings("columns", patch.Columns()),
			zap.Strings("cleared", patch.Clear),
			zap.Error(err),
		)
		t.notifyError("Error updating: " + UserMessage(err))
		return nil, err
	}

	t.invalidate(ctx)
	t.notifySuccess("Application updated")

	return app, nil
}

// Delete removes the application and returns the refreshed view page. The cached
// view drops the row before the store confirms and gets it back if the delete fails.
func (t *Tracker) Delete(ctx context.Context, id string, view models.Query) (*models.Page, error) {
	if id == "" {
		return nil, &normalize.ValidationError{
			Kind:    normalize.KindMissingIdentifier,
			Field:   models.FieldID,
			Message: "This row has no app_uuid; refresh and try again.",
		}
	}

	view = view.Normalized()
	state := &pageState{tracker: t, query: view}

	page, err := optimistic.Do(ctx, state,
		func(p *models.Page) *models.Page { return p.Without(id) },
		func(ctx context.Context) (*models.Page, error) {
			start := time.Now()
			err := t.store.Delete(ctx, id)
			metrics.ObserveStore(t.backend, "delete", start, err)
			if err != nil {
				return nil, err
			}
			t.invalidate(ctx)
			return state.refetch(ctx)
		},
	)

	if errors.Is(err, optimistic.ErrReconcile) {
		t.logger.Warn("failed to cache page after delete", zap.Error(err))
		err = nil
	}
	if err != nil {
		t.logger.Error("failed to delete application",
			zap.String("app_uuid", id),
			zap.Error(err),
		)
		t.notifyError("Error deleting: " + UserMessage(err))
		return nil, err
	}

	t.notifySuccess("Application deleted")
	return page, nil
}

func (t *Tracker) Get(ctx context.Context, id string) (*models.Application, error) {
	start := time.Now()
	app, err := t.store.Get(ctx, id)
	metrics.ObserveStore(t.backend, "get", start, err)
	return app, err
}

// List returns one page, served from cache when possible. A page past the
// end is clamped to the last page.
func (t *Tracker) List(ctx context.Context, q models.Query) (*models.Page, error) {
	page, _, err := t.list(ctx, q.Normalized())
	return page, err
}

// list also returns the cache generation the page belongs to.
func (t *Tracker) list(ctx context.Context, q models.Query) (*models.Page, generation, error) {
	gen := t.generation(ctx)
	if gen.ok {
		if page, ok := t.cache.GetPage(ctx, gen.version, q); ok {
			return page, gen, nil
		}
	}

	page, err := t.fetch(ctx, q)
	if err != nil {
		return nil, gen, err
	}

	t.remember(ctx, gen, q, page)
	return page, gen, nil
}

// Due lists applications due within windowDays of now, overdue ones included.
func (t *Tracker) Due(ctx context.Context, now time.Time, windowDays int) ([]models.DueItem, error) {
	until := normalize.UTCDay(now).AddDate(0, 0, windowDays)

	start := time.Now()
	apps, err := t.store.ListDue(ctx, models.Day(until.Format(normalize.DateLayout)))
	metrics.ObserveStore(t.backend, "list_due", start, err)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}

	return lo.Map(apps, func(a models.Application, _ int) models.DueItem {
		p, days := models.ClassifyDue(a.DueDate, now)
		return models.DueItem{Application: a, Proximity: p, Days: days}
	}), nil
}

func (t *Tracker) fetch(ctx context.Context, q models.Query) (*models.Page, error) {
	start := time.Now()
	page, err := t.store.Query(ctx, q)
	metrics.ObserveStore(t.backend, "query", start, err)
	if err != nil {
		return nil, err
	}

	if last := page.Pages(); len(page.Items) == 0 && page.Total > 0 && q.Page > last {
		clamped := q
		clamped.Page = last
		return t.fetch(ctx, clamped)
	}

	return page, nil
}

// generation is a page cache version; ok is false when there is no usable cache.
type generation struct {
	version int64
	ok      bool
}

func (t *Tracker) generation(ctx context.Context) generation {
	if t.cache == nil {
		return generation{}
	}
	v, err := t.cache.PageVersion(ctx)
	if err != nil {
		t.logger.Warn("failed to read page cache version", zap.Error(err))
		return generation{}
	}
	return generation{version: v, ok: true}
}

func (t *Tracker) remember(ctx context.Context, gen generation, q models.Query, page *models.Page) {
	if !gen.ok {
		return
	}
	if err := t.cache.SetPage(ctx, gen.version, q, page); err != nil {
		t.logger.Warn("failed to cache page", zap.Error(err))
	}
}

func (t *Tracker) invalidate(ctx context.Context) {
	if t.cache == nil {
		return
	}
	if err := t.cache.InvalidatePages(ctx); err != nil {
		t.logger.Warn("failed to invalidate page cache", zap.Error(err))
	}
}

func (t *Tracker) notifySuccess(msg string) {
	if t.notifier != nil {
		t.notifier.Success(msg)
	}
}

func (t *Tracker) notifyError(msg string) {
	if t.notifier != nil {
		t.notifier.Error(msg)
	}
}

// UserMessage is the text shown to the user for err.
func UserMessage(err error) string {
	if se, ok := storage.AsStoreError(err); ok {
		return se.Message
	}
	var ve *normalize.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// pageState is the cached list page a delete is applied to, kept in the
// generation it was loaded from until the delete refetches it.
type pageState struct {
	tracker *Tracker
	query   models.Query
	gen     generation
}

func (s *pageState) Load(ctx context.Context) (*models.Page, error) {
	page, gen, err := s.tracker.list(ctx, s.query)
	if err != nil {
		return nil, err
	}
	s.gen = gen
	return page, nil
}

func (s *pageState) Store(ctx context.Context, page *models.Page) error {
	s.tracker.remember(ctx, s.gen, s.query, page)
	return nil
}

// refetch reads the view in the current generation and moves the state there.
func (s *pageState) refetch(ctx context.Context) (*models.Page, error) {
	gen := s.tracker.generation(ctx)
	page, err := s.tracker.fetch(ctx, s.query)
	if err != nil {
		return nil, err
	}
	s.gen = gen
	return page, nil
}
