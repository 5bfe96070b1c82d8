/*
SPDX-License-Identifier: Apache-2.0
*/

// Package ledger models the world state the traceability engine reads and
// mutates: a flat key-value space holding batches and activities.
package ledger

import (
	"strings"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

// State is the key-value world state. Get returns nil, nil for a missing key.
type State interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Ranger is implemented by states that can iterate a key range [start, end)
// in ascending key order.
type Ranger interface {
	Range(start, end string, fn func(key string, value []byte) error) error
}

// PrefixEnd returns the smallest key greater than every key starting with prefix.
func PrefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// recordLabel names the record type stored under key, for error messages.
func recordLabel(key string) string {
	if strings.HasPrefix(key, domain.BatchPrefix) {
		return "batch"
	}
	if kind, ok := domain.ParseActivityID(key); ok {
		return kind.Name()
	}
	return "record"
}
