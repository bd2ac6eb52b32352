package service

import (
	"context"
	"fmt"

	"duesreminder/internal/application/dto"
	"duesreminder/internal/pkg/logger"
)

// AdminNotifier delivers operational alerts to the administrator, and
// optionally mirrors them to a second messenger.
type AdminNotifier struct {
	adminID  string
	primary  Messenger
	mirror   Messenger
	mirrorTo string
	log      logger.Logger
}

// NewAdminNotifier creates an AdminNotifier sending through primary.
func NewAdminNotifier(adminID string, primary Messenger, log logger.Logger) *AdminNotifier {
	return &AdminNotifier{adminID: adminID, primary: primary, log: log}
}

// WithMirror also sends every alert to recipient `to` through m.
func (a *AdminNotifier) WithMirror(m Messenger, to string) *AdminNotifier {
	a.mirror = m
	a.mirrorTo = to
	return a
}

// Notify sends text to every configured destination. Failures are logged and
// reported in the returned outcomes, never escalated.
func (a *AdminNotifier) Notify(ctx context.Context, text string) []dto.NotificationOutcome {
	outcomes := []dto.NotificationOutcome{deliver(ctx, a.primary, a.adminID, text, a.log)}
	if a.mirror != nil {
		outcomes = append(outcomes, deliver(ctx, a.mirror, a.mirrorTo, text, a.log))
	}
	return outcomes
}

// deliver sends one best-effort message.
func deliver(ctx context.Context, m Messenger, recipientID, text string, log logger.Logger) dto.NotificationOutcome {
	out := dto.NotificationOutcome{RecipientID: recipientID}
	if err := m.SendMessage(ctx, recipientID, text); err != nil {
		log.Error(fmt.Sprintf("Failed to send message to %s", recipientID), err)
		out.Err = err
		return out
	}
	out.Delivered = true
	return out
}
