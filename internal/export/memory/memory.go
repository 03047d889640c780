// Package memory is an in-memory spreadsheet stand-in for tests and local
// development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pocketbook/internal/core"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Transaction

	// FailNext makes the next Append return an error, for retry tests.
	FailNext bool
}

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext {
		s.FailNext = false
		return "", fmt.Errorf("simulated append failure")
	}
	s.rows = append(s.rows, t)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...)
}
