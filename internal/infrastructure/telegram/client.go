package telegram

import (
	"context"
	"fmt"
	"strconv"

	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Client wraps the Telegram Bot API and implements the service Notifier.
type Client struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	log     logger.Logger
}

// NewClient authenticates with the bot token. Outgoing calls are throttled
// to ratePerSec requests per second.
func NewClient(token string, ratePerSec float64, log logger.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot client: %w", err)
	}
	log.Info(fmt.Sprintf("Authorized on Telegram account %s", bot.Self.UserName))
	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		log:     log,
	}, nil
}

// SendMessage sends a plain text message to a user or chat.
func (c *Client) SendMessage(ctx context.Context, recipientID, text string) error {
	chatID, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid recipient %q", appErrors.ErrDelivery, recipientID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrDelivery, err)
	}
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%w: chat %s: %v", appErrors.ErrDelivery, recipientID, err)
	}
	c.log.Debug(fmt.Sprintf("Successfully sent message to %s.", recipientID))
	return nil
}

// RemoveMember bans the member from the group.
func (c *Client) RemoveMember(ctx context.Context, groupID, memberID string) error {
	chatID, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid group %q", appErrors.ErrRemoval, groupID)
	}
	userID, err := strconv.ParseInt(memberID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid member %q", appErrors.ErrRemoval, memberID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrRemoval, err)
	}

	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	}
	if _, err := c.bot.Request(ban); err != nil {
		return fmt.Errorf("%w: member %s from %s: %v", appErrors.ErrRemoval, memberID, groupID, err)
	}
	c.log.Debug(fmt.Sprintf("Removed member %s from group %s.", memberID, groupID))
	return nil
}

// SetWebhook points Telegram at url. A non-empty secret is echoed back by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if _, err := c.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	c.log.Info(fmt.Sprintf("Webhook set to %s", url))
	return nil
}

// Poll long-polls for updates and hands each one to handle until ctx is done.
// Any webhook is removed first since Telegram refuses getUpdates while one is set.
func (c *Client) Poll(ctx context.Context, handle func(context.Context, tgbotapi.Update)) error {
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)
	c.log.Info("Long polling for Telegram updates.")

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			handle(ctx, update)
		}
	}
}
