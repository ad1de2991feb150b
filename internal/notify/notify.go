// Package notify delivers new-mail notifications to the desktop and to any
// other registered sink.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unreadwatch/internal/domain"

	"github.com/gen2brain/beeep"
)

const (
	AppName     = "unreadwatch"
	maxMessages = 3
)

type Message struct {
	Title string
	Body  string
}

type Notifier interface {
	Notify(ctx context.Context, message Message) error
}

// Desktop shows a system notification.
type Desktop struct {
	// IconPath is optional.
	IconPath string
}

func NewDesktop(iconPath string) *Desktop {
	beeep.AppName = AppName

	return &Desktop{IconPath: iconPath}
}

func (d *Desktop) Notify(_ context.Context, message Message) error {
	if err := beeep.Notify(message.Title, message.Body, d.IconPath); err != nil {
		return fmt.Errorf("show desktop notification: %w", err)
	}

	return nil
}

// Multi delivers to every notifier. One failing sink does not stop the
// others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}

		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Compose builds the notification for a total that went from previous to
// total. digest, when set, replaces the message list.
func Compose(total int, previous int, latest []domain.Message, digest string) Message {
	title := fmt.Sprintf("%d unread %s", total, plural(total, "message", "messages"))

	var body strings.Builder
	if added := total - previous; added > 0 {
		fmt.Fprintf(&body, "%d new since last check", added)
	}

	if digest = strings.TrimSpace(digest); digest != "" {
		body.WriteString("\n")
		body.WriteString(digest)

		return Message{Title: title, Body: strings.TrimSpace(body.String())}
	}

	for i, message := range latest {
		if i == maxMessages {
			break
		}

		body.WriteString("\n")
		body.WriteString(FormatMessage(message))
	}

	return Message{Title: title, Body: strings.TrimSpace(body.String())}
}

func FormatMessage(message domain.Message) string {
	subject := strings.TrimSpace(message.Subject)
	if subject == "" {
		subject = "(no subject)"
	}

	author := strings.TrimSpace(message.Author)
	if author == "" {
		return subject
	}

	return author + ": " + subject
}

func plural(n int, one string, many string) string {
	if n == 1 {
		return one
	}

	return many
}
