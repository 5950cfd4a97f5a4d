package utils

import (
	"fmt"
	"strings"
	"time"

	"career-compass/internal/models"

	"github.com/samber/lo"
)

const maxNotesLen = 300

// digest sections, most urgent first
var digestSections = []struct {
	proximity models.Proximity
	title     string
}{
	{models.ProximityOverdue, "🔴 Overdue"},
	{models.ProximityToday, "🟠 Due today"},
	{models.ProximitySoon, "🟡 Due soon"},
	{models.ProximityScheduled, "⚪️ Scheduled"},
}

// Format application card for Telegram
func FormatApplication(app *models.Application, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*\n\n", EscapeMarkdown(app.DisplayName())))

	if app.Status != nil {
		sb.WriteString(fmt.Sprintf("%s *Status:* %s\n",
			models.GetStatusEmoji(*app.Status),
			EscapeMarkdown(*app.Status),
		))
	}

	if app.DueDate != nil {
		sb.WriteString(fmt.Sprintf("📅 *Due:* %s \\(%s\\)\n",
			EscapeMarkdown(string(*app.DueDate)),
			EscapeMarkdown(models.DueLabel(app.DueDate, now)),
		))
	} else {
		sb.WriteString("📅 *Due:* not set\n")
	}

	if app.NextAction != nil {
		sb.WriteString(fmt.Sprintf("➡️ *Next:* %s\n", EscapeMarkdown(*app.NextAction)))
	}

	if app.Location != nil {
		sb.WriteString(fmt.Sprintf("📍 *Location:* %s\n", EscapeMarkdown(*app.Location)))
	}

	if app.Priority != nil {
		sb.WriteString(fmt.Sprintf("⚡️ *Priority:* %s\n", EscapeMarkdown(models.FormatInt(app.Priority))))
	}

	if app.Source != nil {
		sb.WriteString(fmt.Sprintf("🔗 *Source:* %s\n", EscapeMarkdown(*app.Source)))
	}

	if app.Notes != nil {
		sb.WriteString(fmt.Sprintf("\n📝 %s\n", EscapeMarkdown(TruncateString(*app.Notes, maxNotesLen))))
	}

	return sb.String()
}

func FormatApplicationList(page *models.Page, now time.Time) string {
	if page == nil || page.Total == 0 {
		return FormatNoApplicationsMessage()
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📋 *Applications:* %d\n", page.Total))
	sb.WriteString(fmt.Sprintf("*Page* %d/%d\n\n", page.Page, page.Pages()))

	offset := (page.Page - 1) * page.PageSize
	for i, app := range page.Items {
		sb.WriteString(fmt.Sprintf("*%d\\. %s*\n", offset+i+1, EscapeMarkdown(app.DisplayName())))

		status := "No status"
		if app.Status != nil {
			status = models.GetStatusEmoji(*app.Status) + " " + *app.Status
		}
		sb.WriteString(fmt.Sprintf("   %s · %s\n",
			EscapeMarkdown(status),
			EscapeMarkdown(models.DueLabel(app.DueDate, now)),
		))
	}

	return sb.String()
}

// FormatDueDigest groups due items by proximity, most urgent first.
func FormatDueDigest(items []models.DueItem, windowDays int) string {
	if len(items) == 0 {
		return FormatNothingDueMessage(windowDays)
	}

	groups := lo.GroupBy(items, func(item models.DueItem) models.Proximity {
		return item.Proximity
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 *Due in the next %s*\n", EscapeMarkdown(FormatDays(windowDays))))

	for _, section := range digestSections {
		group := groups[section.proximity]
		if len(group) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("\n*%s* \\(%d\\)\n", section.title, len(group)))
		for _, item := range group {
			line := item.Application.DisplayName()
			if item.Application.DueDate != nil {
				line += " - " + string(*item.Application.DueDate)
			}
			if item.Application.NextAction != nil {
				line += ": " + *item.Application.NextAction
			}
			sb.WriteString("• " + EscapeMarkdown(line) + "\n")
		}
	}

	return sb.String()
}

func FormatDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func FormatWelcomeMessage(firstName string) string {
	name := firstName
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(`👋 Hi, *%s*\!

I keep an eye on your job applications\.

*What I can do:*
• Show what is due and what is overdue
• Page through your applications
• Update a status or delete a row

*Commands:*
/due \- applications due soon
/list \- all applications by due date
/help \- help

Start with /due`, EscapeMarkdown(name))
}

func FormatHelpMessage() string {
	return `*📖 Help*

*Commands:*

/start \- welcome message
/due \- overdue, due today and due soon
/list \- applications sorted by due date
/help \- this message

*Working with applications:*

1️⃣ Open /list and tap an application
2️⃣ Change its status with the buttons under the card
3️⃣ Tap 🗑 to delete it

Due dates are calendar days in UTC\.`
}

func FormatNoApplicationsMessage() string {
	return `📭 *No applications yet*

Add one from the dashboard and it will show up here\.`
}

func FormatNothingDueMessage(windowDays int) string {
	return fmt.Sprintf(`✅ *Nothing due*

No applications are due in the next %s\.`, EscapeMarkdown(FormatDays(windowDays)))
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// _ * [ ] ( ) ~ ` > # + - = | { } . !
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// TruncateString shortens s to maxLen runes.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
