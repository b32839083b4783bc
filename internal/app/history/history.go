/*
Package history archives the chat transcript.

Only live events are archived: messages replayed by the server after a
(re)connect were archived when they were first received.
*/
package history

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Kind is the kind of an archived event.
type Kind string

const (
	KindMessage Kind = "message"
	KindFile    Kind = "file_upload"
)

// Record is one archived event.
type Record struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Username string    `json:"username"`
	Body     string    `json:"body,omitempty"`
	FileName string    `json:"fileName,omitempty"`
	At       time.Time `json:"at"`
}

// Archive stores transcript records.
type Archive interface {
	// Append stores r. Storing the same ID twice is not an error.
	Append(ctx context.Context, r Record) error

	// Recent returns at most limit records, oldest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Append(context.Context, Record) error { return nil }

func (Nop) Recent(context.Context, int) ([]Record, error) { return []Record{}, nil }

// Memory keeps records in memory.
type Memory struct {
	mu      sync.Mutex
	records []Record
	ids     map[string]struct{}
}

// NewMemory creates an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{ids: make(map[string]struct{})}
}

func (m *Memory) Append(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ids[r.ID]; ok {
		return nil
	}
	m.ids[r.ID] = struct{}{}
	m.records = append(m.records, r)
	return nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if limit > 0 && len(m.records) > limit {
		start = len(m.records) - limit
	}

	out := slices.Clone(m.records[start:])
	if out == nil {
		out = []Record{}
	}
	return out, nil
}
