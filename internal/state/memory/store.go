// Package memory contains an in-memory state store for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/request-watch/internal/watch"
)

// Store keeps state in process memory.
type Store struct {
	mu    sync.Mutex
	state watch.State
	saves int
}

// New returns a Store holding a fresh default state.
func New() *Store {
	return &Store{state: watch.NewState()}
}

// Load returns a copy of the held state.
func (s *Store) Load(_ context.Context) (watch.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

// Save replaces the held state with a copy of the argument.
func (s *Store) Save(_ context.Context, state watch.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Seed replaces the held state, for test setup.
func (s *Store) Seed(state watch.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
}
