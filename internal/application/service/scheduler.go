package service

import (
	"context"

	"duesreminder/internal/application/dto"
)

// SchedulerService keeps, for every active member, exactly one pending
// action of each lifecycle kind anchored to the member's due date.
type SchedulerService interface {
	// Reschedule cancels every pending action of the member and schedules
	// new ones from the stored due date. The caller must hold the StateLock.
	Reschedule(ctx context.Context, memberID string) error
	// Cancel drops every pending action of the member.
	Cancel(memberID string)
	// PendingActions lists the member's pending actions in firing order.
	PendingActions(memberID string) []dto.ScheduledAction
	// InitializeSchedules reschedules every active member found in the store on startup.
	InitializeSchedules(ctx context.Context) error
	// Stop stops the underlying scheduler.
	Stop()
}
