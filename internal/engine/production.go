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

// ProductionRequest transforms input batches owned by the caller's production
// unit into one output batch.
type ProductionRequest struct {
	ProductionID             string
	ProductionUnitInternalID string
	ProductionType           domain.ProductionType
	ActivityStartDate        string
	// InputBatches maps an input batch id to the quantity consumed from it.
	InputBatches    map[string]float64
	ProductionScore float64
	SES             float64
	OutputBatch
}

type consumption struct {
	batch    *domain.Batch
	quantity float64
}

// Produce validates req, consumes the inputs and writes the output batch and
// the production.
func (e *Engine) Produce(st ledger.State, who identity.Identity, tx TxInfo, req ProductionRequest) (*Receipt, error) {
	started := time.Now()
	rec, err := e.produce(st, who, tx, req)
	return e.finish(domain.KindProduction, req.ProductionID, tx, started, rec, err)
}

func (e *Engine) produce(st ledger.State, who identity.Identity, tx TxInfo, req ProductionRequest) (*Receipt, error) {
	s := e.newSession(st)
	var (
		issuer, mspID, puID string
		startDate           time.Time
		inputs              []consumption
	)

	checks := validate.NewPipeline().
		Then("identity", func() (err error) {
			issuer, mspID, err = identity.Resolve(who)
			return err
		}).
		Then("production id", func() error { return validate.ActivityID(req.ProductionID, domain.KindProduction) }).
		Then("production unique", func() error { return s.uniqueActivity(productionLabel, req.ProductionID) }).
		Then("production type", func() error {
			_, err := validate.ProductionType(string(req.ProductionType))
			return err
		}).
		Then("start date", func() (err error) {
			if startDate, err = validate.Date("activity start date", req.ActivityStartDate); err != nil {
				return err
			}
			return notAfterTx("activity start date", startDate, tx)
		}).
		Then("production unit", func() error {
			if err := validate.NonEmpty("production unit internal ID", req.ProductionUnitInternalID); err != nil {
				return err
			}
			puID = domain.ProductionUnitID(mspID, req.ProductionUnitInternalID)
			return nil
		}).
		Then("input count", func() error {
			if len(req.InputBatches) == 0 {
				return domain.NewError(domain.ErrKindEmptyField, "production must have at least 1 input batch")
			}
			return nil
		}).
		Then("inputs", func() (err error) {
			inputs, err = loadInputs(s, puID, req.InputBatches)
			return err
		})
	batchIDChecks(checks, s, &req.OutputBatch)
	batchAttributeChecks(checks, &req.OutputBatch)
	checks.
		Then("production score", func() error { return validate.Score("production score", req.ProductionScore) }).
		Then("ses", func() error { return validate.Score("ses", req.SES) }).
		Then("final score", func() error { return validate.Score("final score", req.FinalScore) })

	if _, err := checks.Run(); err != nil {
		return nil, err
	}

	trace := make([]string, 0)
	seen := make(map[string]bool)
	written := make([]string, 0, len(inputs)+1)
	consumed := make(map[string]float64, len(inputs))
	for _, in := range inputs {
		for _, activityID := range in.batch.Traceability {
			if !seen[activityID] {
				seen[activityID] = true
				trace = append(trace, activityID)
			}
		}
		consumed[in.batch.ID] = in.quantity
		if in.batch.Consume(in.quantity) {
			if err := s.batches.Delete(in.batch.ID); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.batches.Put(in.batch); err != nil {
			return nil, err
		}
		written = append(written, in.batch.ID)
	}
	trace = append(trace, req.ProductionID)

	output := req.build(puID, trace)
	if err := s.batches.Put(output); err != nil {
		return nil, err
	}
	written = append(written, output.ID)

	production := &domain.Production{
		DocType:                  string(domain.KindProduction),
		ID:                       req.ProductionID,
		ProductionUnitID:         puID,
		ProductionUnitInternalID: req.ProductionUnitInternalID,
		Issuer:                   issuer,
		IssuerMSPID:              mspID,
		TxID:                     tx.ID,
		Timestamp:                tx.Timestamp,
		ProductionType:           req.ProductionType,
		ActivityStartDate:        startDate,
		ActivityEndDate:          tx.Timestamp,
		InputBatches:             consumed,
		OutputBatchID:            output.ID,
		ProductionScore:          req.ProductionScore,
		SES:                      req.SES,
		FinalScore:               req.FinalScore,
	}
	payload, err := s.commit(domain.KindProduction, production.ID, production)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Kind:       domain.KindProduction,
		ActivityID: production.ID,
		BatchIDs:   written,
		Message:    fmt.Sprintf("production activity [%s] & batch [%s] were successfully added to the ledger", production.ID, output.ID),
		Event:      domain.KindProduction.EventName(),
		Payload:    payload,
	}, nil
}

// loadInputs reads and checks the input batches in id order.
func loadInputs(s *session, puID string, quantities map[string]float64) ([]consumption, error) {
	inputs := make([]consumption, 0, len(quantities))
	for _, id := range sortedIDs(quantities) {
		qty := quantities[id]
		batch, err := s.batches.Get(id)
		if err != nil {
			return nil, err
		}
		if batch.IsInTransit {
			return nil, domain.NewError(domain.ErrKindBatchInTransit, "batch [%s] currently in transit", id)
		}
		if batch.LatestOwner != puID {
			return nil, domain.NewError(domain.ErrKindOwnership, "batch [%s] is not owned by production unit [%s]", id, puID)
		}
		rejectedBy, err := s.rejectedAt(batch)
		if err != nil {
			return nil, err
		}
		if rejectedBy != "" {
			return nil, domain.NewError(domain.ErrKindOwnership,
				"batch [%s] was rejected at reception [%s] and can only be returned", id, rejectedBy)
		}
		if math.IsNaN(qty) || qty <= 0 {
			return nil, domain.NewError(domain.ErrKindNonPositiveQuantity,
				"input batches' quantities must be greater than 0 (input quantity for [%s] is %.2f)", id, qty)
		}
		if qty > batch.Quantity+domain.QuantityTolerance {
			return nil, domain.NewError(domain.ErrKindQuantityExceedsAvailable,
				"input batches' quantities must not exceed the batch's total quantity ([%s] max quantity is %.2f)", id, batch.Quantity)
		}
		inputs = append(inputs, consumption{batch: batch, quantity: qty})
	}
	return inputs, nil
}
