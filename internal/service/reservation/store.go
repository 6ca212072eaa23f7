package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Store is the hold backend. Acquire is a check-and-set: exactly one
// caller wins when two race on the same slot. Expired holds read as
// absent.
type Store interface {
	Acquire(ctx context.Context, slotID uuid.UUID, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, slotID uuid.UUID, token string) error
	Holder(ctx context.Context, slotID uuid.UUID) (string, bool, error)
}

// memoryStore backs holds with an expiring in-process cache, for
// single-node deployments and tests. The mutex keeps Release's
// compare-and-delete atomic with respect to Acquire.
type memoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func NewMemoryStore() Store {
	return &memoryStore{
		cache: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (s *memoryStore) Acquire(_ context.Context, slotID uuid.UUID, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Add fails when an unexpired entry exists.
	if err := s.cache.Add(slotID.String(), token, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *memoryStore) Release(_ context.Context, slotID uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, found := s.cache.Get(slotID.String())
	if !found {
		return nil
	}
	if held, ok := current.(string); ok && held == token {
		s.cache.Delete(slotID.String())
	}
	return nil
}

func (s *memoryStore) Holder(_ context.Context, slotID uuid.UUID) (string, bool, error) {
	current, found := s.cache.Get(slotID.String())
	if !found {
		return "", false, nil
	}
	token, _ := current.(string)
	return token, true, nil
}
