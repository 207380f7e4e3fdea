// Package memstore is an in-memory trie.Store, content-addressed by
// Keccak-256 hash exactly like the persistent backends, for tests and
// short-lived tries that never need to survive a process restart. Saves
// are idempotent: writes are keyed by content hash, so two writers saving
// the same bytes collapse safely into one entry.
package memstore

import (
	"fmt"
	"sync"

	"github.com/optimalbrew/rskj"
)

// Store is a concurrency-safe in-memory trie.Store.
type Store struct {
	mu     sync.RWMutex
	nodes  map[[32]byte][]byte
	values map[[32]byte][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nodes:  make(map[[32]byte][]byte),
		values: make(map[[32]byte][]byte),
	}
}

var _ trie.Store = (*Store)(nil)

// RetrieveNode implements trie.NodeStore.
func (s *Store) RetrieveNode(hash [32]byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.nodes[hash]
	if !ok {
		return nil, &trie.MissingNodeError{Hash: hash}
	}
	return data, nil
}

// SaveNode implements trie.NodeStore.
func (s *Store) SaveNode(hash [32]byte, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[hash] = append([]byte(nil), data...)
	return nil
}

// RetrieveValue implements trie.ValueStore.
func (s *Store) RetrieveValue(hash [32]byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.values[hash]
	if !ok {
		return nil, &trie.MissingValueError{Hash: hash}
	}
	return data, nil
}

// SaveValue implements trie.ValueStore.
func (s *Store) SaveValue(hash [32]byte, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[hash] = append([]byte(nil), data...)
	return nil
}

// NodeCount returns the number of distinct node entries currently stored,
// for test assertions.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// String renders basic occupancy counts for debugging.
func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("memstore{nodes=%d values=%d}", len(s.nodes), len(s.values))
}
