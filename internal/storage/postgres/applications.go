package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"career-compass/internal/models"
	"career-compass/internal/storage"

	"github.com/gocraft/dbr/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

func (s *Store) Insert(ctx context.Context, values map[string]any) (*models.Application, error) {
	id, _ := values[models.FieldID].(string)
	cols, vals := columnsAndValues(values)

	_, err := s.sess.
		InsertInto(models.ApplicationsTable).
		Columns(cols...).
		Values(vals...).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to insert application",
			zap.String("app_uuid", id),
			zap.Strings("columns", cols),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert application: %w", storeError(err))
	}

	return s.Get(ctx, id)
}

// Update writes the values in one transaction and returns the stored row.
func (s *Store) Update(ctx context.Context, id string, values map[string]any) (*models.Application, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	result, err := tx.
		Update(models.ApplicationsTable).
		SetMap(lo.OmitByKeys(values, []string{models.FieldID})).
		Where("app_uuid = ?", id).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update application",
			zap.String("app_uuid", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("update application: %w", storeError(err))
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}

	var app models.Application
	err = tx.
		Select("*").
		From(models.ApplicationsTable).
		Where("app_uuid = ?", id).
		LoadOneContext(ctx, &app)

	if err != nil {
		return nil, fmt.Errorf("reload application: %w", storeError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	return &app, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.sess.
		DeleteFrom(models.ApplicationsTable).
		Where("app_uuid = ?", id).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to delete application",
			zap.String("app_uuid", id),
			zap.Error(err),
		)
		return fmt.Errorf("delete application: %w", storeError(err))
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application

	err := s.sess.
		Select("*").
		From(models.ApplicationsTable).
		Where("app_uuid = ?", id).
		LoadOneContext(ctx, &app)

	if errors.Is(err, dbr.ErrNotFound) {
		return nil, storage.ErrNotFound
	}

	if err != nil {
		s.logger.Error("failed to get application",
			zap.String("app_uuid", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get application: %w", storeError(err))
	}

	return &app, nil
}

func (s *Store) Query(ctx context.Context, q models.Query) (*models.Page, error) {
	q = q.Normalized()

	stmt := s.sess.Select("*").From(models.ApplicationsTable)
	count := s.sess.Select("COUNT(*)").From(models.ApplicationsTable)

	for _, cond := range filters(q) {
		stmt.Where(cond)
		count.Where(cond)
	}

	for _, order := range orderClauses(q.Sort, q.Dir) {
		stmt.OrderBy(order)
	}

	var total int
	if err := count.LoadOneContext(ctx, &total); err != nil {
		s.logger.Error("failed to count applications",
			zap.String("q", q.Search),
			zap.String("status", q.Status),
			zap.Error(err),
		)
		return nil, fmt.Errorf("count applications: %w", storeError(err))
	}

	apps := []models.Application{}
	_, err := stmt.
		Limit(uint64(q.PageSize)).
		Offset(uint64(q.Offset())).
		LoadContext(ctx, &apps)

	if err != nil {
		s.logger.Error("failed to query applications",
			zap.String("q", q.Search),
			zap.Int("page", q.Page),
			zap.Error(err),
		)
		return nil, fmt.Errorf("query applications: %w", storeError(err))
	}

	return &models.Page{Items: apps, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// ListDue returns applications due on or before until, skipping rejected ones.
func (s *Store) ListDue(ctx context.Context, until models.Day) ([]models.Application, error) {
	var apps []models.Application

	_, err := s.sess.
		Select("*").
		From(models.ApplicationsTable).
		Where("due_date IS NOT NULL AND due_date <= ?", string(until)).
		Where("status IS DISTINCT FROM ?", models.StatusRejected).
		OrderBy("due_date ASC").
		OrderBy("created_at DESC").
		LoadContext(ctx, &apps)

	if err != nil {
		s.logger.Error("failed to list due applications",
			zap.String("until", string(until)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list due applications: %w", storeError(err))
	}

	return apps, nil
}

func filters(q models.Query) []dbr.Builder {
	var conds []dbr.Builder

	if q.Search != "" {
		pattern := likePattern(q.Search)
		conds = append(conds, dbr.Or(lo.Map(models.SearchColumns, func(col string, _ int) dbr.Builder {
			return dbr.Expr(col+" ILIKE ?", pattern)
		})...))
	}

	if q.Status != "" {
		conds = append(conds, dbr.Eq(models.FieldStatus, q.Status))
	}

	return conds
}

// orderClauses sorts by key with nulls last, then newest first, then identifier.
// key must come from models.SortKeys.
func orderClauses(key models.SortKey, dir models.Direction) []string {
	d := "ASC"
	if dir == models.Desc {
		d = "DESC"
	}

	clauses := []string{fmt.Sprintf("%s %s NULLS LAST", key, d)}
	if key != models.SortCreatedAt {
		clauses = append(clauses, "created_at DESC NULLS LAST")
	}
	return append(clauses, "app_uuid ASC")
}

// likePattern wraps term for ILIKE, escaping its own wildcards.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "_", `\_`, "%", `\%`).Replace(term)
	return "%" + escaped + "%"
}

func columnsAndValues(values map[string]any) ([]string, []interface{}) {
	cols := lo.Keys(values)
	sort.Strings(cols)
	vals := lo.Map(cols, func(col string, _ int) interface{} { return values[col] })
	return cols, vals
}
