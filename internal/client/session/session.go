// Package session holds the single in-memory record of who is logged in.
package session

import (
	"errors"
	"sync"
)

var ErrIncomplete = errors.New("session requires alias and pub")

type Snapshot struct {
	LoggedIn bool
	Alias    string
	Pub      string
}

// State is safe for concurrent use. A logged-in snapshot always carries a
// non-empty alias and pub.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New() *State {
	return &State{}
}

func (s *State) Set(alias, pub string) error {
	if alias == "" || pub == "" {
		return ErrIncomplete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{LoggedIn: true, Alias: alias, Pub: pub}
	return nil
}

func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{}
}

func (s *State) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
