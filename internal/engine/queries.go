/*
SPDX-License-Identifier: Apache-2.0
*/

package engine

import (
	"encoding/json"

	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/ledger"
	"github.com/textrace/traceability-chaincode/internal/validate"
)

// BatchExists reports whether a batch is stored under batchID.
func (e *Engine) BatchExists(st ledger.State, batchID string) (bool, error) {
	return ledger.NewBatchStore(st).Exists(batchID)
}

// ReadBatch returns the batch stored under batchID.
func (e *Engine) ReadBatch(st ledger.State, batchID string) (*domain.Batch, error) {
	return ledger.NewBatchStore(st).Get(batchID)
}

// AvailableBatches lists every batch in the world state, in id order.
func (e *Engine) AvailableBatches(st ledger.State) ([]*domain.Batch, error) {
	return ledger.NewBatchStore(st).List()
}

// TraceBatchByInternalID lists the batches sharing a producer-assigned id.
func (e *Engine) TraceBatchByInternalID(st ledger.State, internalID string) ([]*domain.Batch, error) {
	if err := validate.NonEmpty("batch internal ID", internalID); err != nil {
		return nil, err
	}
	return ledger.NewBatchStore(st).ByInternalID(internalID)
}

// ActivityExists reports whether an activity of any kind is stored under id.
func (e *Engine) ActivityExists(st ledger.State, activityID string) (bool, error) {
	if _, ok := domain.ParseActivityID(activityID); !ok {
		return false, domain.NewError(domain.ErrKindInvalidID, "incorrect activity prefix")
	}
	return ledger.NewActivityLog(st).Exists(activityID)
}

// ReadRegistration returns the registration stored under id.
func (e *Engine) ReadRegistration(st ledger.State, id string) (*domain.Registration, error) {
	out := new(domain.Registration)
	if err := ledger.NewActivityLog(st).Get(domain.KindRegistration, id, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadProduction returns the production stored under id.
func (e *Engine) ReadProduction(st ledger.State, id string) (*domain.Production, error) {
	out := new(domain.Production)
	if err := ledger.NewActivityLog(st).Get(domain.KindProduction, id, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadReception returns the reception stored under id.
func (e *Engine) ReadReception(st ledger.State, id string) (*domain.Reception, error) {
	out := new(domain.Reception)
	if err := ledger.NewActivityLog(st).Get(domain.KindReception, id, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadTransport returns the transport stored under id.
func (e *Engine) ReadTransport(st ledger.State, id string) (*domain.Transport, error) {
	out := new(domain.Transport)
	if err := ledger.NewActivityLog(st).Get(domain.KindTransport, id, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllRegistrations lists every registration, in id order.
func (e *Engine) AllRegistrations(st ledger.State) ([]*domain.Registration, error) {
	return listActivities[domain.Registration](st, domain.KindRegistration)
}

// AllProductions lists every production, in id order.
func (e *Engine) AllProductions(st ledger.State) ([]*domain.Production, error) {
	return listActivities[domain.Production](st, domain.KindProduction)
}

// AllReceptions lists every reception, in id order.
func (e *Engine) AllReceptions(st ledger.State) ([]*domain.Reception, error) {
	return listActivities[domain.Reception](st, domain.KindReception)
}

// AllTransports lists every transport, in id order.
func (e *Engine) AllTransports(st ledger.State) ([]*domain.Transport, error) {
	return listActivities[domain.Transport](st, domain.KindTransport)
}

func listActivities[T any](st ledger.State, kind domain.ActivityKind) ([]*T, error) {
	out := make([]*T, 0)
	err := ledger.NewActivityLog(st).List(kind, func(id string, data []byte) error {
		record := new(T)
		if err := json.Unmarshal(data, record); err != nil {
			return domain.WrapError(domain.ErrKindInternal, err, "could not unmarshal world state data to type %s", kind.Name())
		}
		out = append(out, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
