package handler

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"duesreminder/internal/application/service"
	"duesreminder/internal/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramHandler turns Telegram updates into commands and sends the replies.
type TelegramHandler struct {
	commands *CommandHandler
	replier  service.Messenger
	secret   string
	log      logger.Logger
}

// NewTelegramHandler creates a new TelegramHandler. An empty secret disables
// the webhook secret check.
func NewTelegramHandler(commands *CommandHandler, replier service.Messenger, secret string, log logger.Logger) *TelegramHandler {
	return &TelegramHandler{
		commands: commands,
		replier:  replier,
		secret:   secret,
		log:      log,
	}
}

// HandleWebhook is the entry point for webhook requests.
func (h *TelegramHandler) HandleWebhook(c echo.Context) error {
	if h.secret != "" {
		got := c.Request().Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.log.Warn("Invalid Telegram webhook secret received")
			return c.String(http.StatusUnauthorized, "Invalid secret")
		}
	}

	var update tgbotapi.Update
	if err := c.Bind(&update); err != nil {
		h.log.Error("Failed to parse Telegram webhook request", err)
		return c.String(http.StatusBadRequest, "Error parsing request")
	}

	h.HandleUpdate(c.Request().Context(), update)
	return c.String(http.StatusOK, "OK")
}

// HandleUpdate processes one update, from the webhook or from long polling.
func (h *TelegramHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	senderID := strconv.FormatInt(msg.From.ID, 10)
	command := msg.Command()
	h.log.Info(fmt.Sprintf("Received /%s from %s", command, senderID))

	reply, ok := h.commands.Handle(ctx, senderID, command, strings.Fields(msg.CommandArguments()))
	if !ok {
		return
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if err := h.replier.SendMessage(ctx, chatID, reply); err != nil {
		h.log.Error(fmt.Sprintf("Failed to send reply for /%s to chat %s", command, chatID), err)
	}
}
