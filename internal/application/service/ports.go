package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Messenger sends a text message to a user or chat.
type Messenger interface {
	SendMessage(ctx context.Context, recipientID, text string) error
}

// Notifier is the chat-platform capability used by the lifecycle actions.
// Failures wrap errors.ErrDelivery and errors.ErrRemoval respectively.
type Notifier interface {
	Messenger
	RemoveMember(ctx context.Context, groupID, memberID string) error
}

// JobScheduler runs one-shot jobs at absolute instants.
type JobScheduler interface {
	ScheduleAt(at time.Time, cmd func()) (cron.EntryID, error)
	RemoveJob(id cron.EntryID)
	Stop()
}

// StateLock serialises every load-mutate-save sequence on the membership
// store, from the administrative path and from fired actions alike.
type StateLock struct {
	sync.Mutex
}
