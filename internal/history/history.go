// Package history keeps the ordered, deduplicated list of searched cities.
//
// Entries are canonical city names as returned by the weather source; two
// names are the same entry only if they are byte-for-byte equal. The list is
// written through to a store.KV after every mutation. A failed write leaves
// the in-memory list authoritative for the rest of the session.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/i474232898/weather-search/internal/store"
)

// Key is the store key holding the serialized list (a JSON array of strings).
const Key = "searchHistory"

// ErrPersistence wraps failures of the underlying store.
var ErrPersistence = errors.New("search history not persisted")

// Store is the history of searched cities for one running session.
type Store struct {
	mu    sync.RWMutex
	kv    store.KV
	names []string
}

// New creates an empty Store backed by kv. Call Load to read the persisted list.
// A nil kv keeps the history in memory only.
func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load replaces the in-memory list with the persisted one. Absent or
// malformed data yields an empty list.
func (s *Store) Load(ctx context.Context) []string {
	names := s.read(ctx)

	s.mu.Lock()
	s.names = names
	out := s.snapshotUnlocked()
	s.mu.Unlock()

	return out
}

func (s *Store) read(ctx context.Context) []string {
	if s.kv == nil {
		return nil
	}

	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		log.Printf("WARN: history: read failed, starting empty: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.Printf("WARN: history: stored value is malformed, starting empty: %v", err)
		return nil
	}

	// Drop blanks and repeats so a hand-edited value cannot break the invariant.
	names := make([]string, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, n := range stored {
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	return names
}

// Add appends name unless it is already present, persists the updated list
// and returns it. Adding a present name returns the list unchanged without
// writing. On a persistence failure the returned list still includes name and
// the error wraps ErrPersistence.
func (s *Store) Add(ctx context.Context, name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" || s.containsUnlocked(name) {
		return s.snapshotUnlocked(), nil
	}

	s.names = append(s.names, name)
	out := s.snapshotUnlocked()

	return out, s.persistUnlocked(ctx)
}

// Clear empties the list and removes the persisted record.
func (s *Store) Clear(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names = nil

	if s.kv == nil {
		return []string{}, nil
	}
	if err := s.kv.Delete(ctx, Key); err != nil {
		return []string{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return []string{}, nil
}

// List returns a copy of the current list.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotUnlocked()
}

// Contains reports whether name is an entry.
func (s *Store) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.containsUnlocked(name)
}

func (s *Store) containsUnlocked(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Store) snapshotUnlocked() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Store) persistUnlocked(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}

	b, err := json.Marshal(s.names)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, Key, b); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
