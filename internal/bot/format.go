package bot

import (
	"fmt"
	"strings"
	"time"
	"unreadwatch/internal/domain"
	"unreadwatch/internal/notify"

	tgbot "github.com/go-telegram/bot"
)

func formatNotification(message notify.Message) string {
	var b strings.Builder

	b.WriteString("📬 *")
	b.WriteString(tgbot.EscapeMarkdown(message.Title))
	b.WriteString("*")

	if body := strings.TrimSpace(message.Body); body != "" {
		b.WriteString("\n\n")
		b.WriteString(tgbot.EscapeMarkdown(body))
	}

	return b.String()
}

func formatStatus(status domain.Status) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 *%d unread*\n", status.Total)

	if len(status.Accounts) == 0 {
		b.WriteString("\nNo accounts answered yet\\.")
	}

	for _, account := range status.Accounts {
		fmt.Fprintf(&b, "\n– %s: %d", tgbot.EscapeMarkdown(account.AccountKey), account.Count)
	}

	if cycle := status.LastCycle; cycle != nil {
		finished := time.Unix(cycle.FinishedAtUnix, 0).Format(time.DateTime)
		line := fmt.Sprintf("Last check %s (%s), %d ok, %d failed.",
			finished, cycle.Trigger, cycle.AccountsOK, cycle.AccountsFailed)

		b.WriteString("\n\n")
		b.WriteString(tgbot.EscapeMarkdown(line))
	}

	if !status.NextPoll.IsZero() {
		b.WriteString("\n")
		b.WriteString(tgbot.EscapeMarkdown("Next check at " + status.NextPoll.Format(time.TimeOnly) + "."))
	}

	return b.String()
}
