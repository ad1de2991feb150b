package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot/models"
)

const helpText = `📬 *Unread mail monitor*

/refresh – check all accounts now
/status – show the last known unread counts`

func (b *Bot) handleHelp(ctx context.Context, message *models.Message) error {
	return b.sendText(ctx, message.Chat.ID, helpText)
}

func (b *Bot) handleRefresh(ctx context.Context, message *models.Message) error {
	b.monitor.RequestRefresh()

	if err := b.sendText(ctx, message.Chat.ID, "🔄 Checking mail…"); err != nil {
		return fmt.Errorf("send refresh reply: %w", err)
	}

	return nil
}

func (b *Bot) handleStatus(ctx context.Context, message *models.Message) error {
	return b.withTyping(ctx, message.Chat.ID, func() error {
		status, err := b.monitor.Status(ctx)
		if err != nil {
			if sendErr := b.sendText(ctx, message.Chat.ID, "❌ Status is unavailable\\."); sendErr != nil {
				return fmt.Errorf("send status failure: %w (status: %w)", sendErr, err)
			}

			return fmt.Errorf("get status: %w", err)
		}

		return b.sendText(ctx, message.Chat.ID, formatStatus(status))
	})
}
