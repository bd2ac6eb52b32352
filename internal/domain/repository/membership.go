package repository

import (
	"context"

	"duesreminder/internal/domain/entity"
)

// MembershipStore persists the whole membership snapshot.
//
// Load returns an empty snapshot when nothing has been persisted yet. When the
// persisted state is unreadable it also returns an empty snapshot, together
// with an error wrapping ErrStorageUnavailable so the caller can log it.
// Save replaces the persisted snapshot atomically.
type MembershipStore interface {
	Load(ctx context.Context) (entity.Snapshot, error)
	Save(ctx context.Context, snapshot entity.Snapshot) error
	Close() error
}
