// Package store keeps server-side session token state between requests.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"eventfair/backend/internal/session/domain"
)

// Entry pairs a session token with the mutex that serializes its mutation.
// The session service holds the mutex for state-machine decisions; the
// upstream network call itself runs outside it.
type Entry struct {
	Mu    sync.Mutex
	Token domain.Token
}

// Store maps opaque session IDs to entries. Sessions live in process memory
// and are lost on restart; consumers then re-authenticate.
type Store interface {
	// Get returns the entry for sid, or nil when unknown.
	Get(sid string) *Entry
	// Create allocates a fresh sid for tok and returns it.
	Create(tok domain.Token) (string, error)
	// Delete removes the entry for sid. Deleting an unknown sid is a no-op.
	Delete(sid string)
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*Entry)}
}

func (s *MemoryStore) Get(sid string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[sid]
}

func (s *MemoryStore) Create(tok domain.Token) (string, error) {
	sid, err := newSID()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.data[sid] = &Entry{Token: tok}
	s.mu.Unlock()
	return sid, nil
}

func (s *MemoryStore) Delete(sid string) {
	s.mu.Lock()
	delete(s.data, sid)
	s.mu.Unlock()
}

func newSID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
