/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"encoding/json"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

const batchDocType = "b"

// BatchStore gives keyed access to batch records.
type BatchStore struct {
	st State
}

// NewBatchStore reads and writes batches through st.
func NewBatchStore(st State) *BatchStore {
	return &BatchStore{st: st}
}

// Exists returns true when a batch is stored under id.
func (s *BatchStore) Exists(id string) (bool, error) {
	data, err := s.st.Get(id)
	if err != nil {
		return false, domain.WrapError(domain.ErrKindInternal, err, "could not read batch from world state")
	}
	return data != nil, nil
}

// Get loads the batch stored under id.
func (s *BatchStore) Get(id string) (*domain.Batch, error) {
	data, err := s.st.Get(id)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindInternal, err, "could not read batch from world state")
	}
	if data == nil {
		return nil, domain.NewError(domain.ErrKindBatchNotFound, "batch [%s] does not exist", id)
	}
	batch := new(domain.Batch)
	if err := json.Unmarshal(data, batch); err != nil {
		return nil, domain.WrapError(domain.ErrKindInternal, err, "could not unmarshal world state data to type Batch")
	}
	return batch, nil
}

// Put writes the batch under its id.
func (s *BatchStore) Put(batch *domain.Batch) error {
	batch.DocType = batchDocType
	data, err := json.Marshal(batch)
	if err != nil {
		return domain.WrapError(domain.ErrKindInternal, err, "could not marshal batch [%s]", batch.ID)
	}
	if err := s.st.Put(batch.ID, data); err != nil {
		return domain.WrapError(domain.ErrKindStoreWriteFailure, err, "failed to put batch to world state")
	}
	return nil
}

// Delete removes the batch stored under id.
func (s *BatchStore) Delete(id string) error {
	if err := s.st.Delete(id); err != nil {
		return domain.WrapError(domain.ErrKindStoreWriteFailure, err, "failed to delete batch from world state")
	}
	return nil
}

// List returns every stored batch in id order. The state must implement Ranger.
func (s *BatchStore) List() ([]*domain.Batch, error) {
	return s.filter(func(*domain.Batch) bool { return true })
}

// ByInternalID returns the batches carrying the producer-assigned internal id.
func (s *BatchStore) ByInternalID(internalID string) ([]*domain.Batch, error) {
	return s.filter(func(b *domain.Batch) bool { return b.BatchInternalID == internalID })
}

func (s *BatchStore) filter(keep func(*domain.Batch) bool) ([]*domain.Batch, error) {
	r, ok := s.st.(Ranger)
	if !ok {
		return nil, domain.NewError(domain.ErrKindInternal, "world state does not support range queries")
	}
	batches := make([]*domain.Batch, 0)
	err := r.Range(domain.BatchPrefix, PrefixEnd(domain.BatchPrefix), func(key string, value []byte) error {
		batch := new(domain.Batch)
		if err := json.Unmarshal(value, batch); err != nil {
			return domain.WrapError(domain.ErrKindInternal, err, "could not unmarshal batch [%s]", key)
		}
		if batch.DocType == batchDocType && keep(batch) {
			batches = append(batches, batch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batches, nil
}
