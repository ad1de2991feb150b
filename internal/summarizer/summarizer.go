package summarizer

import (
	"context"
	"slices"
	"strings"
	"unreadwatch/internal/domain"

	"mvdan.cc/xurls/v2"
)

// Input is the prompt payload for a digest request.
type Input struct {
	// Text lists the newest messages grouped by mailbox.
	Text string
	// Accounts are the mailboxes present in Text, in order of appearance.
	Accounts []string
}

// Summarizer condenses the newest unread messages into one line.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}

var linkPattern = xurls.Strict()

// BuildInput renders messages as prompt text with links removed. Messages
// of the same mailbox are listed under one header.
func BuildInput(messages []domain.Message) Input {
	var accounts []string
	lines := make(map[string][]string)

	for _, message := range messages {
		subject := strings.Join(strings.Fields(linkPattern.ReplaceAllString(message.Subject, "")), " ")
		if subject == "" {
			continue
		}

		line := "- " + subject
		if author := strings.TrimSpace(message.Author); author != "" {
			line = "- " + author + ": " + subject
		}

		account := strings.TrimSpace(message.Account)
		if !slices.Contains(accounts, account) {
			accounts = append(accounts, account)
		}
		lines[account] = append(lines[account], line)
	}

	var text strings.Builder
	for _, account := range accounts {
		if account != "" {
			text.WriteString(account)
			text.WriteString(":\n")
		}

		for _, line := range lines[account] {
			text.WriteString(line)
			text.WriteString("\n")
		}
	}

	return Input{
		Text:     strings.TrimSpace(text.String()),
		Accounts: slices.DeleteFunc(accounts, func(a string) bool { return a == "" }),
	}
}
