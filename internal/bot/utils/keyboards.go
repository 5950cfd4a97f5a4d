package utils

import (
	"strconv"

	"career-compass/internal/models"

	tele "gopkg.in/telebot.v3"
)

// callback actions, sent as "<action>:<args>"
const (
	ActionView    = "app_view"
	ActionStatus  = "app_status"
	ActionDelete  = "app_delete"
	ActionPage    = "list_page"
	ActionNoop    = "noop"
	maxButtonText = 40
)

// reply keyboard labels
const (
	BtnDue  = "📅 Due"
	BtnList = "📋 Applications"
	BtnHelp = "❓ Help"
)

// statuses offered under a card
var quickStatuses = []string{models.StatusInterview, models.StatusOffer, models.StatusRejected}

func MainMenuKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}

	menu.Reply(
		menu.Row(menu.Text(BtnDue), menu.Text(BtnList)),
		menu.Row(menu.Text(BtnHelp)),
	)

	return menu
}

// ListKeyboard has one button per application plus page controls.
func ListKeyboard(page *models.Page) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	if page == nil {
		return menu
	}

	var rows []tele.Row
	for _, app := range page.Items {
		label := TruncateString(app.DisplayName(), maxButtonText)
		rows = append(rows, menu.Row(menu.Data("🔎 "+label, ActionView+":"+app.ID+":"+strconv.Itoa(page.Page))))
	}

	if nav := paginationRow(menu, page.Page, page.Pages()); len(nav) > 0 {
		rows = append(rows, nav)
	}

	menu.Inline(rows...)
	return menu
}

// ApplicationKeyboard offers status changes, delete and a way back to the list page.
func ApplicationKeyboard(app *models.Application, listPage int) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	var statusBtns []tele.Btn
	for _, status := range quickStatuses {
		if app.Status != nil && *app.Status == status {
			continue
		}
		statusBtns = append(statusBtns, menu.Data(
			models.GetStatusEmoji(status)+" "+status,
			ActionStatus+":"+app.ID+":"+status+":"+strconv.Itoa(listPage),
		))
	}

	rows := []tele.Row{}
	if len(statusBtns) > 0 {
		rows = append(rows, menu.Row(statusBtns...))
	}
	rows = append(rows,
		menu.Row(menu.Data("🗑 Delete", ActionDelete+":"+app.ID+":"+strconv.Itoa(listPage))),
		menu.Row(menu.Data("◀️ Back", ActionPage+":"+strconv.Itoa(listPage))),
	)

	menu.Inline(rows...)
	return menu
}

func paginationRow(menu *tele.ReplyMarkup, page, totalPages int) tele.Row {
	// no pagination needed
	if totalPages <= 1 {
		return nil
	}

	var buttons []tele.Btn

	if page > 1 {
		buttons = append(buttons, menu.Data("⬅️ Prev", ActionPage+":"+strconv.Itoa(page-1)))
	}

	buttons = append(buttons, menu.Data(strconv.Itoa(page)+"/"+strconv.Itoa(totalPages), ActionNoop))

	if page < totalPages {
		buttons = append(buttons, menu.Data("Next ➡️", ActionPage+":"+strconv.Itoa(page+1)))
	}

	return menu.Row(buttons...)
}
