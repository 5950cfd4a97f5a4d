package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"career-compass/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultPageCacheTTL = 30 * time.Second
	RateLimitWindowTTL  = 1 * time.Minute
)

// PageVersionKey holds a counter bumped on every write; page keys embed it.
func PageVersionKey() string {
	return "apps:pages:version"
}

func PageKey(version int64, q models.Query) string {
	return fmt.Sprintf("apps:pages:v%d:%s", version, QueryHash(q))
}

func RateLimitKey(userID int64) string {
	return fmt.Sprintf("ratelimit:user:%d", userID)
}

func ClientRateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:client:%s", client)
}

// QueryHash identifies a normalized list query.
func QueryHash(q models.Query) string {
	q = q.Normalized()
	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%d", q.Search, q.Status, q.Sort, q.Dir, q.Page, q.PageSize)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// PageVersion is the current page generation; InvalidatePages advances it.
func (c *Cache) PageVersion(ctx context.Context) (int64, error) {
	return c.version(ctx)
}

func (c *Cache) GetPage(ctx context.Context, version int64, q models.Query) (*models.Page, bool) {
	var page models.Page
	if err := c.getJSON(ctx, PageKey(version, q), &page); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("failed to read cached page", zap.Error(err))
		}
		return nil, false
	}

	return &page, true
}

func (c *Cache) SetPage(ctx context.Context, version int64, q models.Query, page *models.Page) error {
	return c.setJSON(ctx, PageKey(version, q), page, c.pageTTL)
}

// InvalidatePages moves to a new generation; old pages expire on their own.
func (c *Cache) InvalidatePages(ctx context.Context) error {
	_, err := c.bumpVersion(ctx)
	return err
}

func (c *Cache) IncrementUserRateLimit(ctx context.Context, userID int64) (int64, error) {
	return c.countInWindow(ctx, RateLimitKey(userID), RateLimitWindowTTL)
}

func (c *Cache) IncrementClientRateLimit(ctx context.Context, client string) (int64, error) {
	return c.countInWindow(ctx, ClientRateLimitKey(client), RateLimitWindowTTL)
}
