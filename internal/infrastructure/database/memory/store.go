package memory

import (
	"context"
	"fmt"
	"sync"

	"duesreminder/internal/domain/entity"
	"duesreminder/internal/domain/repository"
	appErrors "duesreminder/internal/pkg/errors"
)

// Store is an in-memory MembershipStore. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	snapshot entity.Snapshot
	saves    int
}

func NewStore() *Store {
	return &Store{snapshot: entity.Snapshot{}}
}

var _ repository.MembershipStore = (*Store)(nil)

func (s *Store) Load(ctx context.Context) (entity.Snapshot, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.snapshot.Clone()
	if bad := snapshot.Invalid(); len(bad) > 0 {
		return snapshot, fmt.Errorf("%w: members %v", appErrors.ErrInvalidRecord, bad)
	}
	return snapshot, nil
}

func (s *Store) Save(ctx context.Context, snapshot entity.Snapshot) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot.Clone()
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *Store) Close() error { return nil }
