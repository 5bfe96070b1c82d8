/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

type pebbleBackend struct {
	db *pebble.DB
}

// OpenPebbleStore opens, or creates, a world state persisted with Pebble in dir.
func OpenPebbleStore(dir string) (*Store, error) {
	opts := &pebble.Options{
		MemTableSize:          64 << 20,
		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 12,
	}
	db, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "pebble open %s", dir)
	}
	return newStore(&pebbleBackend{db: db}), nil
}

func (p *pebbleBackend) load(key string) ([]byte, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (p *pebbleBackend) scan(start, end string, fn func(key string, value []byte) error) error {
	opts := &pebble.IterOptions{LowerBound: []byte(start)}
	if end != "" {
		opts.UpperBound = []byte(end)
	}
	it, err := p.db.NewIter(opts)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		k := string(it.Key())
		v := append([]byte(nil), it.Value()...)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return it.Error()
}

// apply commits the writes as one atomic, synced batch.
func (p *pebbleBackend) apply(writes []write) error {
	b := p.db.NewBatch()
	defer b.Close()
	for _, w := range writes {
		var err error
		if w.deleted {
			err = b.Delete([]byte(w.key), nil)
		} else {
			err = b.Set([]byte(w.key), w.value, nil)
		}
		if err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (p *pebbleBackend) close() error { return p.db.Close() }
