package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/medflow-cli/internal/parser"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

// Dataset is one import held in memory.
type Dataset struct {
	ID         uuid.UUID     `json:"id"`
	Format     parser.Format `json:"format"`
	Rows       int           `json:"rows"`
	Headers    []string      `json:"headers"`
	ImportedAt time.Time     `json:"imported_at"`

	result *parser.Result
}

// Store keeps the current import. Each Put replaces the previous one.
type Store struct {
	mu      sync.RWMutex
	current *Dataset
}

// Put stores res as the current dataset and returns its description.
func (s *Store) Put(res *parser.Result) Dataset {
	headers := res.Headers
	if headers == nil {
		headers = []string{}
	}
	ds := &Dataset{
		ID:         uuid.New(),
		Format:     res.Format,
		Rows:       len(res.Rows),
		Headers:    headers,
		ImportedAt: time.Now().UTC(),
		result:     res,
	}
	s.mu.Lock()
	s.current = ds
	s.mu.Unlock()
	return *ds
}

// Current returns the current dataset, or false when nothing was imported.
func (s *Store) Current() (Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Dataset{}, false
	}
	return *s.current, true
}

// Rows returns the canonical rows of the current import, nil when empty.
// Callers must not modify the returned slice.
func (s *Store) Rows() []record.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.result.Rows
}

// Result returns the parse result of the current import.
func (s *Store) Result() *parser.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return &parser.Result{}
	}
	return s.current.result
}
