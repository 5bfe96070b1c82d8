/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import "sort"

type memBackend struct {
	data map[string][]byte
}

// NewMemStore returns an empty in-memory world state.
func NewMemStore() *Store {
	return newStore(&memBackend{data: make(map[string][]byte)})
}

func (m *memBackend) load(key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memBackend) scan(start, end string, fn func(key string, value []byte) error) error {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if k >= start && (end == "" || k < end) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, append([]byte(nil), m.data[k]...)); err != nil {
			return err
		}
	}
	return nil
}

func (m *memBackend) apply(writes []write) error {
	for _, w := range writes {
		if w.deleted {
			delete(m.data, w.key)
			continue
		}
		m.data[w.key] = w.value
	}
	return nil
}

func (m *memBackend) close() error { return nil }
