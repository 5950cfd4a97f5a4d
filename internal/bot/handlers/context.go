package handlers

import (
	"context"
	"time"

	"career-compass/internal/config"
	"career-compass/internal/models"
	"career-compass/internal/normalize"

	"go.uber.org/zap"
)

// Tracker is the application service used by the bot.
type Tracker interface {
	Get(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, q models.Query) (*models.Page, error)
	Update(ctx context.Context, fields normalize.Fields) (*models.Application, error)
	Delete(ctx context.Context, id string, view models.Query) (*models.Page, error)
	Due(ctx context.Context, now time.Time, windowDays int) ([]models.DueItem, error)
}

// Context contains deps for all handlers
type Context struct {
	Tracker Tracker
	Config  *config.Config
	Logger  *zap.Logger
	Now     func() time.Time
}

func (c *Context) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// listView is the query behind the /list pages.
func listView(page int) models.Query {
	return models.Query{
		Sort: models.SortDueDate,
		Dir:  models.Asc,
		Page: page,
	}.Normalized()
}
