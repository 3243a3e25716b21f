package docstore

import (
	"context"
	"fmt"
	"sync"
)

// memoryBackend keeps documents in process. It is used by tests and by
// single-node development runs; it enforces the same optimistic rules as
// the SQL backend.
type memoryBackend struct {
	mu   sync.RWMutex
	docs map[key]record
}

// NewMemory returns an empty in-process Store.
func NewMemory() Store {
	return &store{b: &memoryBackend{docs: make(map[key]record)}}
}

func (m *memoryBackend) load(_ context.Context, k key) (record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.docs[k]
	if !ok {
		return record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (m *memoryBackend) list(_ context.Context, collection, parent string) (map[string]record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]record)
	for k, rec := range m.docs {
		if k.collection != collection {
			continue
		}
		if parent != "" && rec.parent != parent {
			continue
		}
		out[k.id] = cloneRecord(rec)
	}
	return out, nil
}

func (m *memoryBackend) commit(ctx context.Context, reads map[key]int64, writes []write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, seen := range reads {
		if m.versionOf(k) != seen {
			return fmt.Errorf("%s/%s: %w", k.collection, k.id, ErrConflict)
		}
	}
	for _, w := range writes {
		current := m.versionOf(w.key)
		if w.expected >= 0 && current != w.expected {
			return fmt.Errorf("%s/%s: %w", w.key.collection, w.key.id, ErrConflict)
		}
		if w.op == opCreate && w.expected <= 0 && current != 0 {
			return fmt.Errorf("%s/%s: %w", w.key.collection, w.key.id, ErrAlreadyExists)
		}
	}

	for _, w := range writes {
		switch w.op {
		case opDelete:
			delete(m.docs, w.key)
		default:
			m.docs[w.key] = record{
				parent:  w.parent,
				version: m.versionOf(w.key) + 1,
				data:    append([]byte(nil), w.data...),
			}
		}
	}
	return nil
}

func (m *memoryBackend) versionOf(k key) int64 {
	if rec, ok := m.docs[k]; ok {
		return rec.version
	}
	return 0
}

func cloneRecord(rec record) record {
	rec.data = append([]byte(nil), rec.data...)
	return rec
}
