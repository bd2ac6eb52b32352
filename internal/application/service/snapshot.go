package service

import (
	"context"
	"errors"
	"fmt"

	"duesreminder/internal/domain/entity"
	"duesreminder/internal/domain/repository"
	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"
)

// loadSnapshot reads the store. Unreadable state is treated as empty and
// logged: a later save will overwrite whatever could not be read. Invalid
// records are kept as they are so that a save does not drop them.
func loadSnapshot(ctx context.Context, store repository.MembershipStore, log logger.Logger) entity.Snapshot {
	snapshot, err := store.Load(ctx)
	switch {
	case errors.Is(err, appErrors.ErrInvalidRecord):
		log.Error("Membership store holds records that will never be scheduled", err)
	case err != nil:
		log.Error(fmt.Sprintf("Membership store unreadable, continuing with %d records", len(snapshot)), err)
	}
	if snapshot == nil {
		snapshot = entity.Snapshot{}
	}
	return snapshot
}
