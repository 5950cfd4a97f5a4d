package handlers

import (
	"strings"

	"career-compass/internal/bot/utils"

	tele "gopkg.in/telebot.v3"
)

// /help
func HandleHelp(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Send(
			utils.FormatHelpMessage(),
			utils.MainMenuKeyboard(),
			tele.ModeMarkdownV2,
		)
	}
}

// HandleText routes main menu buttons
func HandleText(ctx *Context) tele.HandlerFunc {
	due := HandleDue(ctx)
	list := HandleList(ctx)
	help := HandleHelp(ctx)

	return func(c tele.Context) error {
		switch strings.TrimSpace(c.Text()) {
		case utils.BtnDue:
			return due(c)
		case utils.BtnList:
			return list(c)
		case utils.BtnHelp:
			return help(c)
		default:
			return c.Send("Use the menu below or /help.", utils.MainMenuKeyboard())
		}
	}
}
