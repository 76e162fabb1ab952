// Package conversation holds the volatile, ordered transcript of one session.
package conversation

import (
	"sync"

	"medchat/internal/model"
)

// Store is an append-only log of finalized turns. Turns are stored by value,
// so nothing handed to Append or returned from All can alter the log later.
type Store struct {
	mu    sync.RWMutex
	turns []model.Turn
}

func NewStore() *Store {
	return &Store{}
}

// Append adds a finalized turn to the end of the transcript.
func (s *Store) Append(turn model.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// All returns a snapshot of every turn in submission order.
func (s *Store) All() []model.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
