package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	tg "github.com/mrinal-mann/superteacher-backend/internal/telegram"
)

// HandleUpdate is the default handler for everything that is not a command.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	msg := update.Message

	if len(msg.Photo) > 0 || isImageDocument(msg.Document) {
		h.handleImage(ctx, b, msg)
		return
	}

	if msg.Text == "" || strings.HasPrefix(msg.Text, "/") {
		return
	}

	stopTyping := tg.StartTyping(ctx, b, msg.Chat.ID)
	reply, err := h.engine.HandleText(ctx, userKey(msg), msg.Text)
	stopTyping()
	if err != nil {
		slog.Error("text turn failed", "error", err, "chat_id", msg.Chat.ID)
		return
	}
	h.reply(ctx, b, msg.Chat.ID, reply)
}
