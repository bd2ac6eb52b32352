package sqlite

import (
	"context"
	"fmt"

	"duesreminder/internal/domain/entity"
	"duesreminder/internal/domain/repository"
	appErrors "duesreminder/internal/pkg/errors"

	"gorm.io/gorm"
)

// saveBatchSize keeps each INSERT under SQLite's bound-variable limit.
const saveBatchSize = 500

type membershipStore struct {
	db *gorm.DB
}

// NewMembershipStore creates a MembershipStore backed by the memberships table.
func NewMembershipStore(db *gorm.DB) repository.MembershipStore {
	return &membershipStore{db: db}
}

// Load reads every membership row into a snapshot.
func (s *membershipStore) Load(ctx context.Context) (entity.Snapshot, error) {
	var rows []*entity.Membership
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w: failed to read memberships: %v", appErrors.ErrStorageUnavailable, err)
	}
	snapshot := make(entity.Snapshot, len(rows))
	for _, m := range rows {
		snapshot[m.MemberID] = m
	}
	if bad := snapshot.Invalid(); len(bad) > 0 {
		return snapshot, fmt.Errorf("%w: members %v", appErrors.ErrInvalidRecord, bad)
	}
	return snapshot, nil
}

// Save replaces the table contents with the snapshot in one transaction.
func (s *membershipStore) Save(ctx context.Context, snapshot entity.Snapshot) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entity.Membership{}).Error; err != nil {
			return err
		}
		if len(snapshot) == 0 {
			return nil
		}
		rows := make([]*entity.Membership, 0, len(snapshot))
		for id, m := range snapshot {
			row := m.Clone()
			row.MemberID = id
			rows = append(rows, row)
		}
		return tx.CreateInBatches(&rows, saveBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("%w: failed to save %d memberships: %v", appErrors.ErrDatabaseOperation, len(snapshot), err)
	}
	return nil
}

// Close closes the database connection.
func (s *membershipStore) Close() error {
	return CloseDB(s.db)
}
