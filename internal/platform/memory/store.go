package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
	"github.com/phrazzld/librarian/internal/store"
)

// Store is a volatile keyed table. Each operation holds the lock for its
// whole duration, so concurrent writers to one ID see last-writer-wins and
// writers to different IDs never interfere.
type Store[K domain.Kind, R domain.Record[K]] struct {
	mu      sync.RWMutex
	records map[domain.ID[K]]R
}

// New returns an empty store.
func New[K domain.Kind, R domain.Record[K]]() *Store[K, R] {
	return &Store[K, R]{records: make(map[domain.ID[K]]R)}
}

var (
	_ store.AccountStore = (*Store[domain.AccountRole, domain.AccountInfo])(nil)
	_ store.LibraryStore = (*Store[domain.LibraryRole, domain.LibraryInfo])(nil)
)

func (s *Store[K, R]) Get(_ context.Context, id domain.ID[K]) outcome.Outcome[R] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return outcome.Failure[R](domain.ErrNotFound)
	}
	return outcome.Success(r)
}

func (s *Store[K, R]) Add(_ context.Context, record R) outcome.Outcome[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(record)
}

// Update overwrites unconditionally, creating the key when absent.
func (s *Store[K, R]) Update(_ context.Context, record R) outcome.Outcome[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(record)
}

func (s *Store[K, R]) Upsert(_ context.Context, record R) outcome.Outcome[R] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID()]; ok {
		return s.update(record)
	}
	return s.add(record)
}

// add and update expect s.mu to be held.
func (s *Store[K, R]) add(record R) outcome.Outcome[R] {
	if _, ok := s.records[record.ID()]; ok {
		return outcome.Failure[R](domain.ErrAlreadyExists)
	}
	s.records[record.ID()] = record
	return outcome.Success(record)
}

func (s *Store[K, R]) update(record R) outcome.Outcome[R] {
	s.records[record.ID()] = record
	return outcome.Success(record)
}

func (s *Store[K, R]) Delete(_ context.Context, record R) outcome.Outcome[R] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID()]; !ok {
		return outcome.Failure[R](domain.ErrNotFound)
	}
	delete(s.records, record.ID())
	return outcome.Success(record)
}

// ListAll returns a copy of the table.
func (s *Store[K, R]) ListAll(_ context.Context) outcome.Outcome[map[domain.ID[K]]R] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return outcome.Success(maps.Clone(s.records))
}

// Contains reports whether id is present.
func (s *Store[K, R]) Contains(_ context.Context, id domain.ID[K]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[id]
	return ok
}

// Len is the number of stored records.
func (s *Store[K, R]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Dump serializes the table as a JSON object keyed by identifier text.
// encoding/json sorts map keys, so equal tables give equal bytes.
func (s *Store[K, R]) Dump() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]R, len(s.records))
	for id, r := range s.records {
		out[id.String()] = r
	}
	return json.Marshal(out)
}

// Restore replaces the table with the contents of a Dump. Nothing changes
// when any entry fails to decode or is filed under the wrong key.
func (s *Store[K, R]) Restore(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: restore %s: %v", domain.ErrParse, store.EntityName[K](), err)
	}

	records := make(map[domain.ID[K]]R, len(raw))
	for key, payload := range raw {
		id, err := domain.ParseTaggedID[K](key)
		if err != nil {
			return fmt.Errorf("restore key %q: %w", key, err)
		}
		var r R
		if err := json.Unmarshal(payload, &r); err != nil {
			return fmt.Errorf("restore %s: %w", key, err)
		}
		if r.ID() != id {
			return fmt.Errorf("%w: restore %s: record is filed under %s", domain.ErrParse, key, r.ID())
		}
		records[id] = r
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}
