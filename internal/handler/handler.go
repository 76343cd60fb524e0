package handler

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mrinal-mann/superteacher-backend/internal/config"
	"github.com/mrinal-mann/superteacher-backend/internal/engine"
	tg "github.com/mrinal-mann/superteacher-backend/internal/telegram"
)

// Handler wires Telegram updates to the conversation engine.
type Handler struct {
	cfg    *config.Config
	engine *engine.Engine
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg    *config.Config
	Engine *engine.Engine
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:    deps.Cfg,
		engine: deps.Engine,
	}
}

// Register attaches command and default handlers to the bot.
func (h *Handler) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypePrefix, h.handleReset)
}

// userKey identifies a session. One conversation per chat.
func userKey(msg *models.Message) string {
	return strconv.FormatInt(msg.Chat.ID, 10)
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if text == "" {
		return
	}
	if err := tg.SendLongMessage(ctx, b, chatID, text); err != nil {
		slog.Error("send reply failed", "error", err, "chat_id", chatID)
	}
}
