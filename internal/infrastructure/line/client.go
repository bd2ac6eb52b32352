package line

import (
	"context"
	"fmt"

	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Client wraps the linebot.Client. It is used to mirror administrator
// alerts to a LINE account.
type Client struct {
	*linebot.Client
	log logger.Logger
}

// NewClient creates a LINE Bot client from the channel credentials.
func NewClient(channelSecret, channelToken string, log logger.Logger) (*Client, error) {
	if channelSecret == "" || channelToken == "" {
		return nil, fmt.Errorf("LINE channel secret and access token must be set")
	}
	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE Bot client: %w", err)
	}
	log.Info("Successfully created LINE Bot client.")
	return &Client{
		Client: bot,
		log:    log,
	}, nil
}

// PushMessages sends one or more messages using the PushMessage API.
func (c *Client) PushMessages(ctx context.Context, to string, messages ...linebot.SendingMessage) error {
	_, err := c.PushMessage(to, messages...).WithContext(ctx).Do()
	if err != nil {
		return err // Return the error for the caller to handle
	}
	c.log.Debug("Successfully sent push message.")
	return nil
}

// SendMessage pushes a single text message to a LINE user.
func (c *Client) SendMessage(ctx context.Context, recipientID, text string) error {
	if err := c.PushMessages(ctx, recipientID, linebot.NewTextMessage(text)); err != nil {
		return fmt.Errorf("%w: LINE user %s: %v", appErrors.ErrDelivery, recipientID, err)
	}
	return nil
}
