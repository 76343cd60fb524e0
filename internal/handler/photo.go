package handler

import (
	"context"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	tg "github.com/mrinal-mann/superteacher-backend/internal/telegram"
	"github.com/mrinal-mann/superteacher-backend/internal/vision"
)

func (h *Handler) handleImage(ctx context.Context, b *bot.Bot, msg *models.Message) {
	chatID := msg.Chat.ID

	fileID := ""
	if len(msg.Photo) > 0 {
		// Telegram sends multiple sizes; the last is the largest.
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	} else if msg.Document != nil {
		fileID = msg.Document.FileID
	}
	if fileID == "" {
		return
	}

	data, path, err := tg.DownloadFile(ctx, b, fileID)
	if err != nil {
		slog.Error("image download failed", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, "I couldn't download that image. Please try sending it again.")
		return
	}

	img := vision.Input{
		Data: data,
		MIME: mimeForPath(path),
		Name: filepath.Base(path),
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	reply, err := h.engine.HandleImage(ctx, userKey(msg), img)
	stopTyping()
	if err != nil {
		slog.Error("image turn failed", "error", err, "chat_id", chatID)
		return
	}
	h.reply(ctx, b, chatID, reply)
}

func isImageDocument(doc *models.Document) bool {
	return doc != nil && strings.HasPrefix(doc.MimeType, "image/")
}

func mimeForPath(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "image/jpeg"
}
