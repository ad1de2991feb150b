// Package bot mirrors new-mail notifications to a Telegram chat and lets
// that chat trigger a refresh or ask for the current counts.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unreadwatch/internal/domain"
	"unreadwatch/internal/notify"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const updateProcessingTimeout = 30 * time.Second

type Monitor interface {
	RequestRefresh()
	Status(ctx context.Context) (domain.Status, error)
}

type Bot struct {
	api     *tgbot.Bot
	chatID  int64
	monitor Monitor
	log     *slog.Logger
}

// New connects to the Bot API. Only chatID is served.
func New(
	token string,
	chatID int64,
	monitor Monitor,
	log *slog.Logger,
	opts ...tgbot.Option,
) (*Bot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("token is empty")
	}

	b := &Bot{
		chatID:  chatID,
		monitor: monitor,
		log:     log,
	}

	opts = append([]tgbot.Option{
		tgbot.WithDefaultHandler(b.handleDefault),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Telegram API error",
				"error", err)
		}),
	}, opts...)

	api, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	api.RegisterHandler(tgbot.HandlerTypeMessageText, "/refresh", tgbot.MatchTypePrefix, b.guard(b.handleRefresh))
	api.RegisterHandler(tgbot.HandlerTypeMessageText, "/status", tgbot.MatchTypePrefix, b.guard(b.handleStatus))
	api.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypePrefix, b.guard(b.handleHelp))

	b.api = api

	return b, nil
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.log.InfoContext(ctx, "Bot is started",
		"chatID", b.chatID)

	b.api.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

// Notify sends message to the configured chat.
func (b *Bot) Notify(ctx context.Context, message notify.Message) error {
	if err := b.sendText(ctx, b.chatID, formatNotification(message)); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	return nil
}

type handlerFunc func(ctx context.Context, message *models.Message) error

func (b *Bot) guard(handler handlerFunc) tgbot.HandlerFunc {
	return func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}

		chatID := update.Message.Chat.ID
		if !b.chatAllowed(chatID) {
			b.log.DebugContext(ctx, "Chat is not allowed",
				"chatID", chatID,
				"chatType", update.Message.Chat.Type)

			return
		}

		updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
		defer cancel()

		if err := handler(updateCtx, update.Message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"messageID", update.Message.ID,
				"text", update.Message.Text)
		}
	}
}

func (b *Bot) handleDefault(ctx context.Context, api *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	b.guard(b.handleHelp)(ctx, api, update)
}

func (b *Bot) chatAllowed(chatID int64) bool {
	return chatID == b.chatID
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) error {
	_, err := b.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: tgbot.True(),
		},
	})

	return err
}
