/*
SPDX-License-Identifier: Apache-2.0
*/

package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/identity"
	"github.com/textrace/traceability-chaincode/internal/ledger"
	"github.com/textrace/traceability-chaincode/internal/validate"
)

// TransportRequest ships one batch, whole or in part, from the caller's
// production unit to another one.
type TransportRequest struct {
	TransportID                    string
	OriginProductionUnitInternalID string
	// DestinationProductionUnitID is the full <MSPID>:<internal ID> of the receiver.
	DestinationProductionUnitID string
	TransportType               domain.TransportType
	ActivityDate                string
	// InputBatch must hold exactly one batch id and the quantity shipped from it.
	InputBatch map[string]float64
	IsReturn   bool
}

// TransitBatchID names the batch split off by a partial transport.
func TransitBatchID(batchID, transportID string) string {
	return batchID + "-" + transportID
}

// Ship validates req and puts the transported quantity in transit.
func (e *Engine) Ship(st ledger.State, who identity.Identity, tx TxInfo, req TransportRequest) (*Receipt, error) {
	started := time.Now()
	rec, err := e.ship(st, who, tx, req)
	return e.finish(domain.KindTransport, req.TransportID, tx, started, rec, err)
}

func (e *Engine) ship(st ledger.State, who identity.Identity, tx TxInfo, req TransportRequest) (*Receipt, error) {
	s := e.newSession(st)
	var (
		issuer, mspID, origin string
		activityDate          time.Time
		batchID               string
		quantity              float64
		batch                 *domain.Batch
		full                  bool
	)

	checks := validate.NewPipeline().
		Then("identity", func() (err error) {
			issuer, mspID, err = identity.Resolve(who)
			return err
		}).
		Then("transport id", func() error { return validate.ActivityID(req.TransportID, domain.KindTransport) }).
		Then("transport unique", func() error { return s.uniqueActivity(transportLabel, req.TransportID) }).
		Then("transport type", func() error {
			_, err := validate.TransportType(string(req.TransportType))
			return err
		}).
		Then("activity date", func() (err error) {
			if activityDate, err = validate.Date("activity start date", req.ActivityDate); err != nil {
				return err
			}
			return notAfterTx("activity start date", activityDate, tx)
		}).
		Then("production units", func() error {
			if err := validate.NonEmpty("production unit internal ID", req.OriginProductionUnitInternalID); err != nil {
				return err
			}
			if err := validate.NonEmpty("destination production unit ID", req.DestinationProductionUnitID); err != nil {
				return err
			}
			origin = domain.ProductionUnitID(mspID, req.OriginProductionUnitInternalID)
			if origin == req.DestinationProductionUnitID {
				return domain.NewError(domain.ErrKindInvalidID,
					"origin production unit ID [%s] must be different from destination production unit ID [%s]", origin, req.DestinationProductionUnitID)
			}
			return nil
		}).
		Then("input count", func() error {
			if len(req.InputBatch) != 1 {
				return domain.NewError(domain.ErrKindMalformedRequest, "transport activities must only have 1 input batch")
			}
			for id, qty := range req.InputBatch {
				batchID, quantity = id, qty
			}
			return nil
		}).
		Then("input batch", func() (err error) {
			batch, err = s.batches.Get(batchID)
			return err
		}).
		Then("owner", func() error {
			if batch.LatestOwner != origin {
				return domain.NewError(domain.ErrKindOwnership, "batch [%s] is not owned by production unit [%s]", batch.ID, origin)
			}
			return nil
		}).
		Then("in transit", func() error {
			if batch.IsInTransit {
				return domain.NewError(domain.ErrKindBatchInTransit, "batch [%s] currently in transit", batch.ID)
			}
			return nil
		}).
		Then("return quantity", func() error {
			full = math.Abs(quantity-batch.Quantity) <= domain.QuantityTolerance
			if req.IsReturn && !full {
				return domain.NewError(domain.ErrKindQuantityExceedsAvailable,
					"when returning a batch, input batch quantity [%.2f] must be equal to batch's total quantity [%.2f]", quantity, batch.Quantity)
			}
			return nil
		}).
		Then("quantity", func() error {
			if math.IsNaN(quantity) || quantity <= 0 {
				return domain.NewError(domain.ErrKindNonPositiveQuantity,
					"input batch quantity must be greater than 0 (input quantity for [%s] is %.2f)", batch.ID, quantity)
			}
			if quantity > batch.Quantity+domain.QuantityTolerance {
				return domain.NewError(domain.ErrKindQuantityExceedsAvailable,
					"input batch quantity must not exceed the batch's total quantity ([%s] max quantity is %.2f)", batch.ID, batch.Quantity)
			}
			return nil
		}).
		Then("transit batch unique", func() error {
			if full {
				return nil
			}
			return s.uniqueBatch(TransitBatchID(batch.ID, req.TransportID))
		})

	if _, err := checks.Run(); err != nil {
		return nil, err
	}

	var (
		message string
		written []string
		transit *domain.Batch
	)
	if full {
		transit = batch.Clone()
		written = []string{transit.ID}
		message = fmt.Sprintf("transport activity [%s] was successfully added to the ledger. batch [%s] is in transit", req.TransportID, transit.ID)
	} else {
		remainder := batch.Clone()
		remainder.Consume(quantity)
		if err := s.batches.Put(remainder); err != nil {
			return nil, err
		}
		transit = batch.Clone()
		transit.ID = TransitBatchID(batch.ID, req.TransportID)
		transit.Quantity = quantity
		written = []string{remainder.ID, transit.ID}
		message = fmt.Sprintf("transport activity [%s] & batch [%s] were successfully added to the ledger. batch [%s] quantity was updated",
			req.TransportID, transit.ID, remainder.ID)
	}
	transit.IsInTransit = true
	transit.Destination = req.DestinationProductionUnitID
	transit.Trace(req.TransportID)
	if err := s.batches.Put(transit); err != nil {
		return nil, err
	}

	transport := &domain.Transport{
		DocType:                     string(domain.KindTransport),
		ID:                          req.TransportID,
		ProductionUnitID:            origin,
		ProductionUnitInternalID:    req.OriginProductionUnitInternalID,
		Issuer:                      issuer,
		IssuerMSPID:                 mspID,
		TxID:                        tx.ID,
		Timestamp:                   tx.Timestamp,
		DestinationProductionUnitID: req.DestinationProductionUnitID,
		TransportType:               req.TransportType,
		ActivityStartDate:           activityDate,
		ActivityEndDate:             tx.Timestamp,
		InputBatchID:                batch.ID,
		Quantity:                    quantity,
		TransitBatchID:              transit.ID,
		IsReturn:                    req.IsReturn,
	}
	payload, err := s.commit(domain.KindTransport, transport.ID, transport)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Kind:       domain.KindTransport,
		ActivityID: transport.ID,
		BatchIDs:   written,
		Message:    message,
		Event:      domain.KindTransport.EventName(),
		Payload:    payload,
	}, nil
}
