package emergency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Service keeps the emergency status in memory behind an RWMutex so the
// public endpoint never touches the database. Init must run once at
// server start before any reads; updates write through to storage first
// and swap the cached copy only on success.
type Service struct {
	repo Repository

	mu  sync.RWMutex
	cur Status
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Init loads the persisted status, seeding the default on first boot.
func (s *Service) Init(ctx context.Context) error {
	st, err := s.repo.Load(ctx)
	if errors.Is(err, ErrNotInitialized) {
		def := DefaultStatus()
		def.UpdatedAt = time.Now()
		if err := s.repo.Save(ctx, &def); err != nil {
			return fmt.Errorf("seed emergency status: %w", err)
		}
		st = &def
	} else if err != nil {
		return fmt.Errorf("load emergency status: %w", err)
	}

	s.mu.Lock()
	s.cur = *st
	s.mu.Unlock()
	return nil
}

func (s *Service) Current() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Service) Update(ctx context.Context, st Status) (Status, error) {
	st.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, &st); err != nil {
		return Status{}, err
	}
	s.mu.Lock()
	s.cur = st
	s.mu.Unlock()
	return st, nil
}
