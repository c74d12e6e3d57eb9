package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore remembers refresh token ids that were already used.
type RevocationStore interface {
	// Revoke marks jti as used until the given instant. It reports false when
	// jti was already revoked.
	Revoke(ctx context.Context, jti string, until time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevocationStore keeps revocations in process memory.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore creates an empty in-memory store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke implements RevocationStore.
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, until time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	if exp, ok := s.revoked[jti]; ok && exp.After(now) {
		return false, nil
	}
	s.revoked[jti] = until
	return true, nil
}

// IsRevoked implements RevocationStore.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.revoked[jti]
	return ok && exp.After(s.now()), nil
}

// sweep drops entries whose token would be expired anyway. Caller holds mu.
func (s *MemoryRevocationStore) sweep(now time.Time) {
	for jti, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, jti)
		}
	}
}
