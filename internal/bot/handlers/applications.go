package handlers

import (
	"context"
	"time"

	"career-compass/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /due
func HandleDue(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		window := ctx.Config.ReminderWindowDays
		items, err := ctx.Tracker.Due(dbCtx, ctx.now(), window)
		if err != nil {
			ctx.Logger.Error("failed to list due applications", zap.Error(err))
			return c.Send("😔 Could not load due applications. Try again later.")
		}

		return c.Send(utils.FormatDueDigest(items, window), tele.ModeMarkdownV2)
	}
}

// /list
func HandleList(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		page, err := ctx.Tracker.List(dbCtx, listView(1))
		if err != nil {
			ctx.Logger.Error("failed to list applications", zap.Error(err))
			return c.Send("😔 Could not load applications. Try again later.")
		}

		return c.Send(
			utils.FormatApplicationList(page, ctx.now()),
			utils.ListKeyboard(page),
			tele.ModeMarkdownV2,
		)
	}
}
