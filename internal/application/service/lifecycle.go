package service

import (
	"context"

	"duesreminder/internal/application/dto"
)

// LifecycleService holds the actions fired by the scheduler. Each one
// re-reads the member from the store. Callers must hold the StateLock.
type LifecycleService interface {
	// SendPreDueReminder tells the member the fee is due tomorrow.
	SendPreDueReminder(ctx context.Context, memberID string) dto.NotificationOutcome
	// SendDueReminder tells the member the fee is due today.
	SendDueReminder(ctx context.Context, memberID string) dto.NotificationOutcome
	// Kick removes the member from all its groups and marks it kicked.
	// It returns a nil report when the member no longer exists.
	Kick(ctx context.Context, memberID string) (*dto.KickReport, error)
}
