package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrKeyNotFound indica que la clave no existe o expiró
var ErrKeyNotFound = errors.New("key not found")

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore es un Store en memoria con expiración por TTL
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore crea un store en memoria vacío
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

// Get obtiene un valor; las entradas expiradas cuentan como inexistentes
func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", ErrKeyNotFound
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", ErrKeyNotFound
	}

	return entry.value, nil
}

// SetWithTTL establece un valor con TTL; un TTL de cero no expira
func (s *MemoryStore) SetWithTTL(key string, value interface{}, ttl time.Duration) error {
	entry := memoryEntry{value: fmt.Sprint(value)}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	return nil
}

// Delete elimina una clave
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	return nil
}
