package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	reply, err := h.engine.Start(ctx, userKey(msg))
	if err != nil {
		slog.Error("start failed", "error", err, "chat_id", msg.Chat.ID)
		return
	}
	h.reply(ctx, b, msg.Chat.ID, reply)
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	reply, err := h.engine.HandleText(ctx, userKey(msg), "help")
	if err != nil {
		slog.Error("help failed", "error", err, "chat_id", msg.Chat.ID)
		return
	}
	h.reply(ctx, b, msg.Chat.ID, reply)
}

func (h *Handler) handleReset(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	reply, err := h.engine.Reset(ctx, userKey(msg))
	if err != nil {
		slog.Error("reset failed", "error", err, "chat_id", msg.Chat.ID)
		return
	}
	h.reply(ctx, b, msg.Chat.ID, reply)
}
