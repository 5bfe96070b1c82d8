/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"encoding/json"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

// ActivityLog is the append-only record of activities, keyed by activity id.
type ActivityLog struct {
	st State
}

// NewActivityLog reads and appends activities through st.
func NewActivityLog(st State) *ActivityLog {
	return &ActivityLog{st: st}
}

// Exists returns true when an activity is stored under id.
func (l *ActivityLog) Exists(id string) (bool, error) {
	data, err := l.st.Get(id)
	if err != nil {
		return false, domain.WrapError(domain.ErrKindInternal, err, "could not read activity from world state")
	}
	return data != nil, nil
}

// Append stores a new activity record. An id that is already taken is
// rejected; existing activities are never overwritten.
func (l *ActivityLog) Append(kind domain.ActivityKind, id string, record interface{}) error {
	exists, err := l.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewError(domain.ErrKindDuplicateID, "%s [%s] already exists", kind.Name(), id)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return domain.WrapError(domain.ErrKindInternal, err, "could not marshal %s [%s]", kind.Name(), id)
	}
	if err := l.st.Put(id, data); err != nil {
		return domain.WrapError(domain.ErrKindStoreWriteFailure, err, "failed to put %s to world state", kind.Name())
	}
	return nil
}

// Raw returns the stored JSON of the activity id, which must be of kind.
func (l *ActivityLog) Raw(kind domain.ActivityKind, id string) ([]byte, error) {
	if found, ok := domain.ParseActivityID(id); !ok || found != kind {
		return nil, domain.NewError(domain.ErrKindInvalidID, "activity ID prefix must match its type (should be [%s...])", kind.Prefix())
	}
	data, err := l.st.Get(id)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindInternal, err, "could not read %s from world state", kind.Name())
	}
	if data == nil {
		return nil, domain.NewError(domain.ErrKindActivityNotFound, "%s [%s] does not exist", kind.Name(), id)
	}
	return data, nil
}

// Get decodes the activity id into out.
func (l *ActivityLog) Get(kind domain.ActivityKind, id string, out interface{}) error {
	data, err := l.Raw(kind, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.WrapError(domain.ErrKindInternal, err, "could not unmarshal world state data to type %s", kind.Name())
	}
	return nil
}

// List calls fn with every stored activity of kind, in id order. The state
// must implement Ranger.
func (l *ActivityLog) List(kind domain.ActivityKind, fn func(id string, data []byte) error) error {
	r, ok := l.st.(Ranger)
	if !ok {
		return domain.NewError(domain.ErrKindInternal, "world state does not support range queries")
	}
	prefix := kind.Prefix()
	return r.Range(prefix, PrefixEnd(prefix), func(key string, value []byte) error {
		var doc struct {
			DocType string `json:"docType"`
		}
		if err := json.Unmarshal(value, &doc); err != nil {
			return domain.WrapError(domain.ErrKindInternal, err, "could not unmarshal %s [%s]", kind.Name(), key)
		}
		if doc.DocType != string(kind) {
			return nil
		}
		return fn(key, value)
	})
}
