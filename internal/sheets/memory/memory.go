// Package memory is an in-process TransactionExporter for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"mybudget/internal/core"
	ports "mybudget/internal/sheets"
)

var _ ports.TransactionExporter = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows [][]any
	fail error
}

func New() *Store {
	return &Store{}
}

// FailWith makes subsequent appends return err; nil restores normal behavior.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// AppendTransaction stores the rendered row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.rows = append(s.rows, ports.Row(t))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every appended row.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}
