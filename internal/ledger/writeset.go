/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

type write struct {
	key     string
	value   []byte
	deleted bool
}

// WriteSet stages puts and deletes over a base State. Reads observe staged
// writes. Nothing reaches the base until Flush, so a request that fails
// validation leaves the base untouched.
type WriteSet struct {
	base   State
	writes map[string]write
	order  []string
}

// NewWriteSet stages writes over base.
func NewWriteSet(base State) *WriteSet {
	return &WriteSet{base: base, writes: make(map[string]write)}
}

func (w *WriteSet) Get(key string) ([]byte, error) {
	if op, ok := w.writes[key]; ok {
		if op.deleted {
			return nil, nil
		}
		return append([]byte(nil), op.value...), nil
	}
	return w.base.Get(key)
}

func (w *WriteSet) Put(key string, value []byte) error {
	w.stage(write{key: key, value: append([]byte(nil), value...)})
	return nil
}

func (w *WriteSet) Delete(key string) error {
	w.stage(write{key: key, deleted: true})
	return nil
}

func (w *WriteSet) stage(op write) {
	if _, ok := w.writes[op.key]; !ok {
		w.order = append(w.order, op.key)
	}
	w.writes[op.key] = op
}

// Range merges staged writes over the base range. The base must implement
// Ranger.
func (w *WriteSet) Range(start, end string, fn func(key string, value []byte) error) error {
	r, ok := w.base.(Ranger)
	if !ok {
		return errors.New("world state does not support range queries")
	}
	merged := make(map[string][]byte)
	if err := r.Range(start, end, func(key string, value []byte) error {
		merged[key] = value
		return nil
	}); err != nil {
		return err
	}
	for key, op := range w.writes {
		if key < start || (end != "" && key >= end) {
			continue
		}
		if op.deleted {
			delete(merged, key)
		} else {
			merged[key] = op.value
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, merged[k]); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the staged keys in the order they were first written.
func (w *WriteSet) Keys() []string {
	return append([]string(nil), w.order...)
}

// Len is the number of staged keys.
func (w *WriteSet) Len() int { return len(w.order) }

// Flush applies the staged writes to the base in staging order.
func (w *WriteSet) Flush() error {
	for _, key := range w.order {
		op := w.writes[key]
		if op.deleted {
			if err := w.base.Delete(key); err != nil {
				return domain.WrapError(domain.ErrKindStoreWriteFailure, err, "failed to delete %s from world state", recordLabel(key))
			}
			continue
		}
		if err := w.base.Put(key, op.value); err != nil {
			return domain.WrapError(domain.ErrKindStoreWriteFailure, err, "failed to put %s to world state", recordLabel(key))
		}
	}
	w.writes = make(map[string]write)
	w.order = nil
	return nil
}
