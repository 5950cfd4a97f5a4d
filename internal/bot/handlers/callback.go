package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"career-compass/internal/bot/utils"
	"career-compass/internal/models"
	"career-compass/internal/normalize"
	"career-compass/internal/optimistic"
	"career-compass/internal/tracker"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// HandleCallback processes all callback queries from inline buttons
func HandleCallback(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			ctx.Logger.Warn("callback is nil")
			return nil
		}

		action, args := parseCallback(cb.Data)

		ctx.Logger.Debug("routing callback",
			zap.String("action", action),
			zap.Strings("args", args),
		)

		switch action {
		case utils.ActionView:
			return handleView(ctx, c, args)
		case utils.ActionStatus:
			return handleStatus(ctx, c, args)
		case utils.ActionDelete:
			return handleDelete(ctx, c, args)
		case utils.ActionPage:
			return handlePage(ctx, c, args)
		case utils.ActionNoop:
			return c.Respond()
		default:
			ctx.Logger.Warn("unknown callback action",
				zap.String("action", action),
				zap.String("data", cb.Data),
			)
			return c.Respond(&tele.CallbackResponse{Text: "❓ Unknown action"})
		}
	}
}

// parseCallback splits "\f<action>:<arg>:..." into its parts.
func parseCallback(data string) (string, []string) {
	// telebot prefixes unique buttons with \f and appends "|<data>"
	data = strings.TrimPrefix(data, "\f")
	if i := strings.IndexByte(data, '|'); i >= 0 {
		data = data[:i]
	}

	parts := strings.Split(data, ":")
	return parts[0], parts[1:]
}

func pageArg(args []string, i int) int {
	if i >= len(args) {
		return 1
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func handleView(ctx *Context, c tele.Context, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return c.Respond(&tele.CallbackResponse{Text: "This row has no app_uuid; refresh and try again.", ShowAlert: true})
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := ctx.Tracker.Get(dbCtx, args[0])
	if err != nil {
		ctx.Logger.Error("failed to get application", zap.String("app_uuid", args[0]), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "😔 " + tracker.UserMessage(err), ShowAlert: true})
	}

	if err := editScreen(c, cardScreen(ctx, app, pageArg(args, 1))); err != nil {
		ctx.Logger.Warn("failed to edit message", zap.Error(err))
	}
	return c.Respond()
}

func handleStatus(ctx *Context, c tele.Context, args []string) error {
	if len(args) < 2 || args[0] == "" {
		return c.Respond(&tele.CallbackResponse{Text: "Missing app_uuid; cannot update safely.", ShowAlert: true})
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := ctx.Tracker.Update(dbCtx, normalize.Fields{
		models.FieldID:     args[0],
		models.FieldStatus: args[1],
	})
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Error updating: " + tracker.UserMessage(err), ShowAlert: true})
	}

	if err := editScreen(c, cardScreen(ctx, app, pageArg(args, 2))); err != nil {
		ctx.Logger.Warn("failed to edit message", zap.Error(err))
	}
	return c.Respond(&tele.CallbackResponse{Text: "Application updated"})
}

// handleDelete shows the list without the row right away and puts the card
// back if the store rejects the delete.
func handleDelete(ctx *Context, c tele.Context, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return c.Respond(&tele.CallbackResponse{Text: "This row has no app_uuid; refresh and try again.", ShowAlert: true})
	}
	id := args[0]
	view := listView(pageArg(args, 1))

	dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := ctx.Tracker.Get(dbCtx, id)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Error deleting: " + tracker.UserMessage(err), ShowAlert: true})
	}
	current, err := ctx.Tracker.List(dbCtx, view)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Error deleting: " + tracker.UserMessage(err), ShowAlert: true})
	}

	state := &messageState{c: c, shown: cardScreen(ctx, app, view.Page)}
	_, err = optimistic.Do(dbCtx, state,
		func(screen) screen { return listScreen(ctx, current.Without(id)) },
		func(ctx2 context.Context) (screen, error) {
			page, err := ctx.Tracker.Delete(ctx2, id, view)
			if err != nil {
				return screen{}, err
			}
			return listScreen(ctx, page), nil
		},
	)

	if errors.Is(err, optimistic.ErrReconcile) {
		ctx.Logger.Warn("failed to refresh list after delete", zap.Error(err))
		err = nil
	}
	if err != nil {
		ctx.Logger.Error("failed to delete application", zap.String("app_uuid", id), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Error deleting: " + tracker.UserMessage(err), ShowAlert: true})
	}

	return c.Respond(&tele.CallbackResponse{Text: "Application deleted"})
}

func handlePage(ctx *Context, c tele.Context, args []string) error {
	dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, err := ctx.Tracker.List(dbCtx, listView(pageArg(args, 0)))
	if err != nil {
		ctx.Logger.Error("failed to list applications", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "😔 Could not load applications"})
	}

	if err := editScreen(c, listScreen(ctx, page)); err != nil {
		ctx.Logger.Warn("failed to edit message", zap.Error(err))
	}
	return c.Respond()
}

// screen is the rendered content of one bot message.
type screen struct {
	text   string
	markup *tele.ReplyMarkup
}

func cardScreen(ctx *Context, app *models.Application, listPage int) screen {
	return screen{
		text:   utils.FormatApplication(app, ctx.now()),
		markup: utils.ApplicationKeyboard(app, listPage),
	}
}

func listScreen(ctx *Context, page *models.Page) screen {
	return screen{
		text:   utils.FormatApplicationList(page, ctx.now()),
		markup: utils.ListKeyboard(page),
	}
}

func editScreen(c tele.Context, s screen) error {
	err := c.Edit(s.text, s.markup, tele.ModeMarkdownV2)
	if errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	return err
}

// messageState is the callback's message as optimistic state.
type messageState struct {
	c     tele.Context
	shown screen
}

func (m *messageState) Load(_ context.Context) (screen, error) {
	return m.shown, nil
}

func (m *messageState) Store(_ context.Context, s screen) error {
	if err := editScreen(m.c, s); err != nil {
		return err
	}
	m.shown = s
	return nil
}
