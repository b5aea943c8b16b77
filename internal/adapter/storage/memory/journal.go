// Package memory provides process-local storage for running without a
// database and for tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"schnl-ledger/internal/core/domain"
)

// Journal implements ports.Journal in memory. Entries are stored encoded so
// callers cannot alias stored state.
type Journal struct {
	mu      sync.RWMutex
	entries [][]byte
	lastSeq uint64
	failErr error
}

// NewJournal creates an empty in-memory journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Append stores entry. Sequence numbers must be strictly increasing.
func (j *Journal) Append(_ context.Context, entry *domain.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.failErr != nil {
		return j.failErr
	}
	if entry.Seq <= j.lastSeq {
		return fmt.Errorf("journal sequence %d not after %d", entry.Seq, j.lastSeq)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	j.entries = append(j.entries, raw)
	j.lastSeq = entry.Seq
	return nil
}

// Load returns every stored entry in sequence order.
func (j *Journal) Load(_ context.Context) ([]*domain.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]*domain.JournalEntry, 0, len(j.entries))
	for _, raw := range j.entries {
		var e domain.JournalEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode journal entry: %w", err)
		}
		if err := domain.UpgradeJournalEntry(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, nil
}

// Len returns the number of stored entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// FailWith makes every following Append return err. A nil err restores
// normal operation.
func (j *Journal) FailWith(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failErr = err
}
