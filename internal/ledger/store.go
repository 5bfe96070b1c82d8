/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrConflict is returned by Tx.Commit when another transaction changed a key
// this transaction read or wrote. Nothing from the losing transaction is applied.
var ErrConflict = errors.New("transaction conflict: world state changed since it was read")

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction already committed or rolled back")

// backend is the raw key-value engine under a Store.
type backend interface {
	load(key string) ([]byte, error)
	scan(start, end string, fn func(key string, value []byte) error) error
	apply(writes []write) error
	close() error
}

// Store is a local world state with optimistic, per-key conflict detection.
// Transactions that touch disjoint keys commit independently. When two
// transactions touch the same key, the first to commit wins.
type Store struct {
	mu       sync.RWMutex
	versions map[string]uint64
	kv       backend
}

func newStore(kv backend) *Store {
	return &Store{versions: make(map[string]uint64), kv: kv}
}

// Begin starts a transaction.
func (s *Store) Begin() *Tx {
	return &Tx{store: s, seen: make(map[string]uint64), writes: make(map[string]write)}
}

// Update runs fn inside a transaction and commits it when fn succeeds.
func (s *Store) Update(fn func(tx *Tx) error) error {
	tx := s.Begin()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close releases the underlying engine.
func (s *Store) Close() error { return s.kv.close() }

// Tx is a transaction over a Store. It implements State and Ranger.
type Tx struct {
	store  *Store
	seen   map[string]uint64
	writes map[string]write
	order  []string
	done   bool
}

func (t *Tx) observe(key string) {
	if _, ok := t.seen[key]; !ok {
		t.seen[key] = t.store.versions[key]
	}
}

func (t *Tx) Get(key string) ([]byte, error) {
	if t.done {
		return nil, ErrTxDone
	}
	if op, ok := t.writes[key]; ok {
		if op.deleted {
			return nil, nil
		}
		return append([]byte(nil), op.value...), nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	t.observe(key)
	v, err := t.store.kv.load(key)
	if err != nil {
		return nil, errors.Wrapf(err, "load %q", key)
	}
	return v, nil
}

func (t *Tx) Put(key string, value []byte) error {
	return t.stage(write{key: key, value: append([]byte(nil), value...)})
}

func (t *Tx) Delete(key string) error {
	return t.stage(write{key: key, deleted: true})
}

func (t *Tx) stage(op write) error {
	if t.done {
		return ErrTxDone
	}
	if op.key == "" {
		return errors.New("key must not be empty")
	}
	t.store.mu.RLock()
	t.observe(op.key)
	t.store.mu.RUnlock()
	if _, ok := t.writes[op.key]; !ok {
		t.order = append(t.order, op.key)
	}
	t.writes[op.key] = op
	return nil
}

// Range reads [start, end) and overlays the transaction's own writes. Every
// scanned key joins the conflict set.
func (t *Tx) Range(start, end string, fn func(key string, value []byte) error) error {
	if t.done {
		return ErrTxDone
	}
	merged := make(map[string][]byte)
	t.store.mu.RLock()
	err := t.store.kv.scan(start, end, func(key string, value []byte) error {
		t.observe(key)
		merged[key] = value
		return nil
	})
	t.store.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "scan world state")
	}
	ws := &WriteSet{base: mapState(merged), writes: t.writes, order: t.order}
	return ws.Range(start, end, fn)
}

// Commit applies every staged write atomically, or none of them on conflict.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if len(t.order) == 0 {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for key, v := range t.seen {
		if t.store.versions[key] != v {
			return errors.Wrapf(ErrConflict, "key %q", key)
		}
	}
	writes := make([]write, 0, len(t.order))
	for _, key := range t.order {
		writes = append(writes, t.writes[key])
	}
	if err := t.store.kv.apply(writes); err != nil {
		return errors.Wrap(err, "apply write batch")
	}
	for _, w := range writes {
		t.store.versions[w.key]++
	}
	return nil
}

// Rollback discards the transaction.
func (t *Tx) Rollback() {
	t.done = true
	t.writes = nil
	t.order = nil
}

// mapState is a read-only State over a snapshot map; it lets Tx.Range reuse
// WriteSet's merge logic.
type mapState map[string][]byte

func (m mapState) Get(key string) ([]byte, error) { return m[key], nil }
func (m mapState) Put(string, []byte) error       { return errors.New("read-only state") }
func (m mapState) Delete(string) error            { return errors.New("read-only state") }

func (m mapState) Range(start, end string, fn func(key string, value []byte) error) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k < start || (end != "" && k >= end) {
			continue
		}
		if err := fn(k, m[k]); err != nil {
			return err
		}
	}
	return nil
}
