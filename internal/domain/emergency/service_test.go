package emergency

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memRepo struct {
	mu     sync.Mutex
	stored *Status
	fail   bool
}

func (m *memRepo) Load(_ context.Context) (*Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return nil, ErrNotInitialized
	}
	cp := *m.stored
	return &cp, nil
}

func (m *memRepo) Save(_ context.Context, s *Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("storage down")
	}
	cp := *s
	m.stored = &cp
	return nil
}

func TestInit_SeedsDefault(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)

	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cur := svc.Current()
	if !cur.Open || !cur.Available247 {
		t.Errorf("default status = %+v, want open and 24/7", cur)
	}
	if repo.stored == nil {
		t.Error("default not persisted")
	}
}

func TestInit_LoadsPersisted(t *testing.T) {
	phone := "+90 212 000 0000"
	repo := &memRepo{stored: &Status{Open: false, Phone: &phone}}
	svc := NewService(repo)

	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cur := svc.Current()
	if cur.Open {
		t.Error("persisted closed status overridden")
	}
	if cur.Phone == nil || *cur.Phone != phone {
		t.Error("persisted phone lost")
	}
}

func TestUpdate(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	if err := svc.Init(ctx); err != nil {
		t.Fatal(err)
	}

	notes := "ER entrance moved to the north wing"
	updated, err := svc.Update(ctx, Status{Open: true, Available247: false, Notes: &notes})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("update timestamp not set")
	}
	if got := svc.Current(); got.Available247 || got.Notes == nil {
		t.Errorf("cached status not swapped: %+v", got)
	}
}

func TestUpdate_StorageFailureKeepsCache(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	if err := svc.Init(ctx); err != nil {
		t.Fatal(err)
	}

	repo.fail = true
	if _, err := svc.Update(ctx, Status{Open: false}); err == nil {
		t.Fatal("expected storage error")
	}
	if got := svc.Current(); !got.Open {
		t.Error("cache mutated despite failed persist")
	}
}

func TestConcurrentReads(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	if err := svc.Init(ctx); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.Current()
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.Update(ctx, Status{Open: true, Available247: true})
		}()
	}
	wg.Wait()
}
