/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

func sampleBatch(id string) *domain.Batch {
	return &domain.Batch{
		ID:               id,
		BatchType:        domain.Fiber,
		LatestOwner:      "Org1MSP:pu-1",
		BatchInternalID:  "int-" + id,
		SupplierID:       "sup-1",
		Quantity:         100,
		Unit:             domain.Kilograms,
		FinalScore:       5,
		BatchComposition: domain.Composition{"cotton": 60, "wool": 40},
	}
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, "b.", PrefixEnd("b-"))
	assert.Equal(t, "", PrefixEnd("\xff"))
}

func TestWriteSetStagesUntilFlush(t *testing.T) {
	store := NewMemStore()
	tx := store.Begin()
	require.NoError(t, tx.Put("b-1", []byte("one")))

	ws := NewWriteSet(tx)
	require.NoError(t, ws.Put("b-2", []byte("two")))
	require.NoError(t, ws.Delete("b-1"))

	v, err := ws.Get("b-2")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), v)
	v, err = ws.Get("b-1")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = tx.Get("b-2")
	require.NoError(t, err)
	assert.Nil(t, v, "staged write leaked before Flush")

	var keys []string
	require.NoError(t, ws.Range("b-", PrefixEnd("b-"), func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{"b-2"}, keys)
	assert.Equal(t, []string{"b-2", "b-1"}, ws.Keys())

	require.NoError(t, ws.Flush())
	assert.Equal(t, 0, ws.Len())
	require.NoError(t, tx.Commit())

	check := store.Begin()
	v, err = check.Get("b-1")
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = check.Get("b-2")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), v)
}

func TestStoreConflictOnSameKey(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Update(func(tx *Tx) error { return tx.Put("b-1", []byte("v0")) }))

	first := store.Begin()
	second := store.Begin()
	_, err := first.Get("b-1")
	require.NoError(t, err)
	_, err = second.Get("b-1")
	require.NoError(t, err)

	require.NoError(t, first.Put("b-1", []byte("v1")))
	require.NoError(t, second.Put("b-1", []byte("v2")))

	require.NoError(t, first.Commit())
	err = second.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	v, err := store.Begin().Get("b-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
}

func TestStoreDisjointKeysCommitIndependently(t *testing.T) {
	store := NewMemStore()
	first := store.Begin()
	second := store.Begin()
	require.NoError(t, first.Put("b-1", []byte("one")))
	require.NoError(t, second.Put("b-2", []byte("two")))
	require.NoError(t, second.Commit())
	require.NoError(t, first.Commit())

	assert.ErrorIs(t, first.Commit(), ErrTxDone)
}

func TestStoreRangeJoinsConflictSet(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Update(func(tx *Tx) error { return tx.Put("b-1", []byte("v0")) }))

	reader := store.Begin()
	require.NoError(t, reader.Range("b-", PrefixEnd("b-"), func(string, []byte) error { return nil }))
	require.NoError(t, reader.Put("rg-1", []byte("x")))

	require.NoError(t, store.Update(func(tx *Tx) error { return tx.Put("b-1", []byte("v1")) }))

	err := reader.Commit()
	assert.True(t, errors.Is(err, ErrConflict))
	v, err := store.Begin().Get("rg-1")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStoreRollbackDiscards(t *testing.T) {
	store := NewMemStore()
	err := store.Update(func(tx *Tx) error {
		if err := tx.Put("b-1", []byte("x")); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	v, err := store.Begin().Get("b-1")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestPebbleStorePersists(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenPebbleStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Update(func(tx *Tx) error {
		batches := NewBatchStore(tx)
		if err := batches.Put(sampleBatch("b-1")); err != nil {
			return err
		}
		return batches.Put(sampleBatch("b-2"))
	}))
	require.NoError(t, store.Close())

	store, err = OpenPebbleStore(dir)
	require.NoError(t, err)
	defer store.Close()

	tx := store.Begin()
	list, err := NewBatchStore(tx).List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b-1", list[0].ID)
	assert.Equal(t, "b-2", list[1].ID)
	assert.InDelta(t, 100, list[0].BatchComposition.Sum(), 1e-9)
}

func TestBatchStore(t *testing.T) {
	tx := NewMemStore().Begin()
	batches := NewBatchStore(tx)

	_, err := batches.Get("b-1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindBatchNotFound, domain.KindOf(err))
	assert.Contains(t, err.Error(), "batch [b-1] does not exist")

	b := sampleBatch("b-1")
	require.NoError(t, batches.Put(b))
	exists, err := batches.Exists("b-1")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := batches.Get("b-1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.DocType)
	assert.Equal(t, "int-b-1", got.BatchInternalID)

	require.NoError(t, tx.Put("rg-1", []byte(`{"docType":"rg"}`)))
	found, err := batches.ByInternalID("int-b-1")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, batches.Delete("b-1"))
	exists, err = batches.Exists("b-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBatchStoreListNeedsRanger(t *testing.T) {
	_, err := NewBatchStore(getOnly{}).List()
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindInternal, domain.KindOf(err))
}

func TestActivityLog(t *testing.T) {
	log := NewActivityLog(NewMemStore().Begin())
	rg := &domain.Registration{DocType: "rg", ID: "rg-1", NewBatchID: "b-1", FinalScore: 5}

	require.NoError(t, log.Append(domain.KindRegistration, "rg-1", rg))
	err := log.Append(domain.KindRegistration, "rg-1", rg)
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindDuplicateID, domain.KindOf(err))
	assert.Contains(t, err.Error(), "registration [rg-1] already exists")

	var got domain.Registration
	require.NoError(t, log.Get(domain.KindRegistration, "rg-1", &got))
	assert.Equal(t, "b-1", got.NewBatchID)

	err = log.Get(domain.KindProduction, "rg-1", &got)
	assert.Equal(t, domain.ErrKindInvalidID, domain.KindOf(err))

	_, err = log.Raw(domain.KindTransport, "t-9")
	assert.Equal(t, domain.ErrKindActivityNotFound, domain.KindOf(err))
}

func TestActivityLogListByKind(t *testing.T) {
	tx := NewMemStore().Begin()
	log := NewActivityLog(tx)
	require.NoError(t, log.Append(domain.KindRegistration, "rg-2", &domain.Registration{DocType: "rg", ID: "rg-2"}))
	require.NoError(t, log.Append(domain.KindRegistration, "rg-1", &domain.Registration{DocType: "rg", ID: "rg-1"}))
	require.NoError(t, log.Append(domain.KindReception, "rc-1", &domain.Reception{DocType: "rc", ID: "rc-1"}))
	require.NoError(t, NewBatchStore(tx).Put(sampleBatch("b-1")))

	var ids []string
	require.NoError(t, log.List(domain.KindRegistration, func(id string, _ []byte) error {
		ids = append(ids, id)
		return nil
	}))
	assert.Equal(t, []string{"rg-1", "rg-2"}, ids)

	ids = nil
	require.NoError(t, log.List(domain.KindTransport, func(id string, _ []byte) error {
		ids = append(ids, id)
		return nil
	}))
	assert.Empty(t, ids)

	err := NewActivityLog(getOnly{}).List(domain.KindRegistration, func(string, []byte) error { return nil })
	assert.Equal(t, domain.ErrKindInternal, domain.KindOf(err))
}

func TestFlushReportsStoreWriteFailure(t *testing.T) {
	ws := NewWriteSet(getOnly{})
	require.NoError(t, ws.Put("p-1", []byte("x")))
	err := ws.Flush()
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindStoreWriteFailure, domain.KindOf(err))
	assert.Contains(t, err.Error(), "failed to put production to world state")
}

type getOnly struct{}

func (getOnly) Get(string) ([]byte, error) { return nil, nil }
func (getOnly) Put(string, []byte) error   { return errors.New("read only") }
func (getOnly) Delete(string) error        { return errors.New("read only") }
