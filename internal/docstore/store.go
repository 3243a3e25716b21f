// Package docstore is the transactional document store behind the engine.
//
// Documents are JSON values addressed by (collection, id) and optionally
// grouped under a parent id. Every document carries a version that is bumped
// on each committed write. Transactions are optimistic: reads record the
// version they observed, writes are buffered, and commit fails with
// ErrConflict when any observed version moved underneath the transaction.
// Nothing is written on failure.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrAlreadyExists     = errors.New("document already exists")
	ErrConflict          = errors.New("concurrent modification detected")
	ErrRetriesExhausted  = errors.New("transaction retries exhausted")
	ErrTransactionClosed = errors.New("transaction already finished")
)

// Document is a raw stored document.
type Document struct {
	Collection string
	ID         string
	Parent     string
	Version    int64
	Data       json.RawMessage
}

// Decode unmarshals the document body into dst.
func (d Document) Decode(dst any) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// TxFunc is the body of a transaction. It may be invoked more than once
// by a retrier, so it must not have side effects outside tx.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the public surface of a document store.
type Store interface {
	// RunTransaction executes fn exactly once and commits its writes atomically.
	RunTransaction(ctx context.Context, fn TxFunc) error
	// Get is a non-transactional snapshot read.
	Get(ctx context.Context, collection, id string, dst any) error
	// List is a non-transactional snapshot read. An empty parent lists the whole collection.
	List(ctx context.Context, collection, parent string) ([]Document, error)
}

// Tx is an open optimistic transaction.
type Tx interface {
	Get(collection, id string, dst any) error
	List(collection, parent string) ([]Document, error)
	Create(collection, id, parent string, v any) error
	Set(collection, id, parent string, v any) error
	Delete(collection, id string) error
}

type key struct {
	collection string
	id         string
}

type record struct {
	parent  string
	version int64
	data    []byte
}

type writeOp int

const (
	opSet writeOp = iota
	opCreate
	opDelete
)

type write struct {
	key    key
	op     writeOp
	parent string
	data   []byte
	// expected is the version the transaction observed, -1 when the key was never read.
	expected int64
}

// backend is what a concrete storage engine has to provide. Reads are
// plain snapshot reads; commit must apply the writes atomically and report
// ErrConflict if any version in reads or any write expectation is stale.
type backend interface {
	load(ctx context.Context, k key) (record, bool, error)
	list(ctx context.Context, collection, parent string) (map[string]record, error)
	commit(ctx context.Context, reads map[key]int64, writes []write) error
}

type store struct {
	b backend
}

func (s *store) RunTransaction(ctx context.Context, fn TxFunc) error {
	t := &tx{
		ctx:    ctx,
		b:      s.b,
		reads:  make(map[key]int64),
		writes: make(map[key]*write),
	}
	if err := fn(ctx, t); err != nil {
		t.done = true
		return err
	}
	t.done = true
	if len(t.writes) == 0 && len(t.reads) == 0 {
		return nil
	}

	writes := make([]write, 0, len(t.order))
	for _, k := range t.order {
		if w, ok := t.writes[k]; ok {
			writes = append(writes, *w)
		}
	}
	return s.b.commit(ctx, t.reads, writes)
}

func (s *store) Get(ctx context.Context, collection, id string, dst any) error {
	rec, ok, err := s.b.load(ctx, key{collection, id})
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return decodeRecord(collection, id, rec, dst)
}

func (s *store) List(ctx context.Context, collection, parent string) ([]Document, error) {
	recs, err := s.b.list(ctx, collection, parent)
	if err != nil {
		return nil, err
	}
	return toDocuments(collection, recs), nil
}

type tx struct {
	ctx    context.Context
	b      backend
	reads  map[key]int64
	writes map[key]*write
	order  []key
	done   bool
}

func (t *tx) observe(k key, rec record, ok bool) {
	if _, seen := t.reads[k]; seen {
		return
	}
	if ok {
		t.reads[k] = rec.version
	} else {
		t.reads[k] = 0
	}
}

func (t *tx) Get(collection, id string, dst any) error {
	if t.done {
		return ErrTransactionClosed
	}
	k := key{collection, id}
	if w, ok := t.writes[k]; ok {
		if w.op == opDelete {
			return ErrNotFound
		}
		return decodeRecord(collection, id, record{parent: w.parent, data: w.data}, dst)
	}
	rec, ok, err := t.b.load(t.ctx, k)
	if err != nil {
		return err
	}
	t.observe(k, rec, ok)
	if !ok {
		return ErrNotFound
	}
	return decodeRecord(collection, id, rec, dst)
}

func (t *tx) List(collection, parent string) ([]Document, error) {
	if t.done {
		return nil, ErrTransactionClosed
	}
	recs, err := t.b.list(t.ctx, collection, parent)
	if err != nil {
		return nil, err
	}
	for id, rec := range recs {
		t.observe(key{collection, id}, rec, true)
	}
	for k, w := range t.writes {
		if k.collection != collection {
			continue
		}
		if w.op == opDelete {
			delete(recs, k.id)
			continue
		}
		if parent != "" && w.parent != parent {
			delete(recs, k.id)
			continue
		}
		recs[k.id] = record{parent: w.parent, data: w.data}
	}
	return toDocuments(collection, recs), nil
}

func (t *tx) Create(collection, id, parent string, v any) error {
	k := key{collection, id}
	if w, ok := t.writes[k]; ok && w.op != opDelete {
		return ErrAlreadyExists
	}
	if _, ok := t.writes[k]; !ok {
		rec, exists, err := t.b.load(t.ctx, k)
		if err != nil {
			return err
		}
		t.observe(k, rec, exists)
		if exists {
			return ErrAlreadyExists
		}
	}
	return t.put(k, opCreate, parent, v)
}

func (t *tx) Set(collection, id, parent string, v any) error {
	return t.put(key{collection, id}, opSet, parent, v)
}

func (t *tx) Delete(collection, id string) error {
	if t.done {
		return ErrTransactionClosed
	}
	k := key{collection, id}
	t.record(k, &write{key: k, op: opDelete, expected: t.expected(k)})
	return nil
}

func (t *tx) put(k key, op writeOp, parent string, v any) error {
	if t.done {
		return ErrTransactionClosed
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", k.collection, k.id, err)
	}
	t.record(k, &write{key: k, op: op, parent: parent, data: data, expected: t.expected(k)})
	return nil
}

func (t *tx) expected(k key) int64 {
	if v, ok := t.reads[k]; ok {
		return v
	}
	return -1
}

func (t *tx) record(k key, w *write) {
	if _, ok := t.writes[k]; !ok {
		t.order = append(t.order, k)
	}
	t.writes[k] = w
}

func decodeRecord(collection, id string, rec record, dst any) error {
	if err := json.Unmarshal(rec.data, dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func toDocuments(collection string, recs map[string]record) []Document {
	docs := make([]Document, 0, len(recs))
	for id, rec := range recs {
		docs = append(docs, Document{
			Collection: collection,
			ID:         id,
			Parent:     rec.parent,
			Version:    rec.version,
			Data:       json.RawMessage(rec.data),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}
