package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/consulting-service/internal/domain"
)

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is the single-process counterpart of RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) get(key string) (any, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

func (s *MemoryStore) set(key string, value any, ttl time.Duration) {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
}

func (s *MemoryStore) Save(_ context.Context, session *domain.CheckoutSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.set(checkoutPrefix+session.GatewayOrderID, copied, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, gatewayOrderID string) (*domain.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.get(checkoutPrefix + gatewayOrderID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session := v.(domain.CheckoutSession)
	return &session, nil
}

func (s *MemoryStore) Delete(_ context.Context, gatewayOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, checkoutPrefix+gatewayOrderID)
	return nil
}

func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.get(idempotencyPrefix + key); held {
		return false, nil
	}
	s.set(idempotencyPrefix+key, true, ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, idempotencyPrefix+key)
	return nil
}

func (s *MemoryStore) Next(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	if v, ok := s.get(key); ok {
		n = v.(int64)
	}
	n++
	s.set(key, n, 0)
	return n, nil
}

// Seed raises the counter at key to floor when it is lower.
func (s *MemoryStore) Seed(_ context.Context, key string, floor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.get(key); ok && v.(int64) >= floor {
		return nil
	}
	s.set(key, floor, 0)
	return nil
}

func (s *MemoryStore) GetServices(_ context.Context) ([]domain.Service, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.get(catalogKey)
	if !ok {
		return nil, false, nil
	}
	return append([]domain.Service(nil), v.([]domain.Service)...), true, nil
}

func (s *MemoryStore) SetServices(_ context.Context, services []domain.Service, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(catalogKey, append([]domain.Service(nil), services...), ttl)
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, catalogKey)
	return nil
}

var (
	_ CheckoutStore    = (*MemoryStore)(nil)
	_ IdempotencyGuard = (*MemoryStore)(nil)
	_ CatalogCache     = (*MemoryStore)(nil)
	_ Sequencer        = (*MemoryStore)(nil)
	_ CheckoutStore    = (*RedisStore)(nil)
	_ IdempotencyGuard = (*RedisStore)(nil)
	_ CatalogCache     = (*RedisStore)(nil)
	_ Sequencer        = (*RedisStore)(nil)
)
