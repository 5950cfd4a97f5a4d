package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"career-compass/internal/models"
	"career-compass/internal/storage"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	applicationsPath = "/" + models.ApplicationsTable
	deleteRPCPath    = "/rpc/app_delete_by_uuid"
)

// Insert is sent once; a failed insert is never retried.
func (c *Client) Insert(ctx context.Context, values map[string]any) (*models.Application, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   applicationsPath,
		body:   []map[string]any{values},
		prefer: []string{"return=representation"},
	})
	if err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}

	return firstRow(resp.body)
}

func (c *Client) Update(ctx context.Context, id string, values map[string]any) (*models.Application, error) {
	resp, err := c.do(ctx, request{
		method:     http.MethodPatch,
		path:       applicationsPath,
		params:     url.Values{models.FieldID: {"eq." + id}},
		body:       lo.OmitByKeys(values, []string{models.FieldID}),
		prefer:     []string{"return=representation"},
		idempotent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}

	return firstRow(resp.body)
}

// Delete goes through the app_delete_by_uuid function.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{
		method:     http.MethodPost,
		path:       deleteRPCPath,
		body:       deleteArgs{UUID: id},
		idempotent: true,
	})
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Application, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   applicationsPath,
		params: url.Values{
			"select":        {"*"},
			models.FieldID: {"eq." + id},
		},
		idempotent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}

	return firstRow(resp.body)
}

func (c *Client) Query(ctx context.Context, q models.Query) (*models.Page, error) {
	q = q.Normalized()

	resp, err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       applicationsPath,
		params:     queryParams(q),
		prefer:     []string{"count=exact"},
		idempotent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	apps := []models.Application{}
	if err := decode(resp.body, &apps); err != nil {
		return nil, err
	}

	total, ok := parseContentRange(resp.header.Get("Content-Range"))
	if !ok {
		c.logger.Warn("missing total in Content-Range",
			zap.String("content_range", resp.header.Get("Content-Range")),
		)
		total = q.Offset() + len(apps)
	}

	return &models.Page{Items: apps, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (c *Client) ListDue(ctx context.Context, until models.Day) ([]models.Application, error) {
	params := url.Values{
		"select":            {"*"},
		models.FieldDueDate: {"lte." + string(until)},
		"or":                {"(status.is.null,status.neq." + quote(models.StatusRejected) + ")"},
		"order":             {"due_date.asc,created_at.desc"},
	}

	resp, err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       applicationsPath,
		params:     params,
		idempotent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list due applications: %w", err)
	}

	var apps []models.Application
	if err := decode(resp.body, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func queryParams(q models.Query) url.Values {
	params := url.Values{
		"select": {"*"},
		"order":  {orderParam(q.Sort, q.Dir)},
		"offset": {strconv.Itoa(q.Offset())},
		"limit":  {strconv.Itoa(q.PageSize)},
	}

	if q.Search != "" {
		pattern := quote("*" + q.Search + "*")
		conds := lo.Map(models.SearchColumns, func(col string, _ int) string {
			return col + ".ilike." + pattern
		})
		params.Set("or", "("+strings.Join(conds, ",")+")")
	}

	if q.Status != "" {
		params.Set(models.FieldStatus, "eq."+q.Status)
	}

	return params
}

func orderParam(key models.SortKey, dir models.Direction) string {
	parts := []string{fmt.Sprintf("%s.%s.nullslast", key, dir)}
	if key != models.SortCreatedAt {
		parts = append(parts, "created_at.desc.nullslast")
	}
	parts = append(parts, "app_uuid.asc")
	return strings.Join(parts, ",")
}

// quote wraps a filter value so reserved characters survive PostgREST parsing.
func quote(v string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
	return `"` + escaped + `"`
}

// parseContentRange reads the total from "0-9/57" or "*/0".
func parseContentRange(header string) (int, bool) {
	_, total, found := strings.Cut(header, "/")
	if !found || total == "*" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(total))
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstRow(body []byte) (*models.Application, error) {
	var rows []models.Application
	if err := decode(body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return &rows[0], nil
}
