/*
SPDX-License-Identifier: Apache-2.0
*/

package engine

import (
	"fmt"
	"time"

	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/identity"
	"github.com/textrace/traceability-chaincode/internal/ledger"
	"github.com/textrace/traceability-chaincode/internal/validate"
)

// ReceptionRequest closes a shipment at the receiving production unit. An
// accepted shipment is relabeled under NewBatchID; a rejected one keeps its id.
type ReceptionRequest struct {
	ReceptionID              string
	ProductionUnitInternalID string
	ActivityDate             string
	ReceivedBatchID          string
	NewBatchID               string
	NewBatchInternalID       string
	IsAccepted               bool
	TransportScore           float64
	SES                      float64
	Distance                 float64
	Cost                     float64
}

// Receive validates req and settles the received batch.
func (e *Engine) Receive(st ledger.State, who identity.Identity, tx TxInfo, req ReceptionRequest) (*Receipt, error) {
	started := time.Now()
	rec, err := e.receive(st, who, tx, req)
	return e.finish(domain.KindReception, req.ReceptionID, tx, started, rec, err)
}

func (e *Engine) receive(st ledger.State, who identity.Identity, tx TxInfo, req ReceptionRequest) (*Receipt, error) {
	s := e.newSession(st)
	var (
		issuer, mspID, puID string
		activityDate        time.Time
		received            *domain.Batch
	)

	checks := validate.NewPipeline().
		Then("identity", func() (err error) {
			issuer, mspID, err = identity.Resolve(who)
			return err
		}).
		Then("reception id", func() error { return validate.ActivityID(req.ReceptionID, domain.KindReception) }).
		Then("reception unique", func() error { return s.uniqueActivity(receptionLabel, req.ReceptionID) }).
		Then("production unit", func() error {
			if err := validate.NonEmpty("production unit internal ID", req.ProductionUnitInternalID); err != nil {
				return err
			}
			puID = domain.ProductionUnitID(mspID, req.ProductionUnitInternalID)
			return nil
		}).
		Then("activity date", func() (err error) {
			if activityDate, err = validate.Date("activity date", req.ActivityDate); err != nil {
				return err
			}
			return notAfterTx("activity date", activityDate, tx)
		}).
		Then("received batch", func() (err error) {
			received, err = s.batches.Get(req.ReceivedBatchID)
			return err
		}).
		Then("in transit", func() error {
			if !received.IsInTransit {
				return domain.NewError(domain.ErrKindBatchInTransit, "batch [%s] is not in transit", received.ID)
			}
			return nil
		}).
		Then("receiver", func() error {
			if received.LatestOwner == puID {
				return domain.NewError(domain.ErrKindOwnership,
					"production unit ID [%s] must be different from batch's production unit ID [%s]", puID, received.LatestOwner)
			}
			if received.Destination != "" && received.Destination != puID {
				return domain.NewError(domain.ErrKindOwnership,
					"batch [%s] is addressed to production unit [%s], not [%s]", received.ID, received.Destination, puID)
			}
			return nil
		})
	if req.IsAccepted {
		checks.
			Then("new batch id", func() error { return validate.BatchID(req.NewBatchID) }).
			Then("new batch unique", func() error { return s.uniqueBatch(req.NewBatchID) }).
			Then("new batch internal id", func() error { return validate.NonEmpty("batch internal ID", req.NewBatchInternalID) })
	}
	checks.
		Then("transport score", func() error { return validate.Score("transport score", req.TransportScore) }).
		Then("ses", func() error { return validate.Score("ses", req.SES) }).
		Then("distance", func() error { return validate.NonNegative("distance", req.Distance) }).
		Then("cost", func() error { return validate.NonNegative("cost", req.Cost) })

	if _, err := checks.Run(); err != nil {
		return nil, err
	}

	settled := received.Clone()
	settled.IsInTransit = false
	settled.Destination = ""
	settled.LatestOwner = puID
	settled.Trace(req.ReceptionID)

	var message string
	if req.IsAccepted {
		settled.ID = req.NewBatchID
		settled.BatchInternalID = req.NewBatchInternalID
		if err := s.batches.Delete(received.ID); err != nil {
			return nil, err
		}
		message = fmt.Sprintf("reception activity [%s] & batch [%s] were successfully added to the ledger. batch [%s] was deleted successfully",
			req.ReceptionID, settled.ID, received.ID)
	} else {
		message = fmt.Sprintf("reception activity [%s] was successfully added to the ledger. batch [%s] was rejected",
			req.ReceptionID, received.ID)
	}
	if err := s.batches.Put(settled); err != nil {
		return nil, err
	}

	reception := &domain.Reception{
		DocType:                  string(domain.KindReception),
		ID:                       req.ReceptionID,
		ProductionUnitID:         puID,
		ProductionUnitInternalID: req.ProductionUnitInternalID,
		Issuer:                   issuer,
		IssuerMSPID:              mspID,
		TxID:                     tx.ID,
		Timestamp:                tx.Timestamp,
		ActivityDate:             activityDate,
		ReceivedBatchID:          received.ID,
		ReceivedQuantity:         received.Quantity,
		IsAccepted:               req.IsAccepted,
		TransportScore:           req.TransportScore,
		SES:                      req.SES,
		Distance:                 req.Distance,
		Cost:                     req.Cost,
	}
	if req.IsAccepted {
		reception.NewBatchID = settled.ID
	}
	payload, err := s.commit(domain.KindReception, reception.ID, reception)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Kind:       domain.KindReception,
		ActivityID: reception.ID,
		BatchIDs:   []string{settled.ID},
		Message:    message,
		Event:      domain.KindReception.EventName(),
		Payload:    payload,
	}, nil
}
