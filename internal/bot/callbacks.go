package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flight_bot/internal/intent"
)

const (
	cmdTrack  = "track"
	cmdCancel = "cancel"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	if cb.From == nil || !b.cfg.IsUserAllowed(cb.From.ID) {
		b.reply(chatID, "Access denied.")
		return
	}

	action, arg, _ := strings.Cut(cb.Data, ":")

	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdCancel:
		b.handleCancel(chatID)
	case cmdTrack:
		if code := intent.NormalizeFlightCode(arg); code != "" {
			b.showFlight(ctx, chatID, code)
		}
	}
}
