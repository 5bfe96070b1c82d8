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

// RegistrationRequest creates a raw batch at the caller's production unit.
type RegistrationRequest struct {
	RegistrationID           string
	ProductionUnitInternalID string
	OutputBatch
}

// Register validates req and writes the new batch and the registration.
func (e *Engine) Register(st ledger.State, who identity.Identity, tx TxInfo, req RegistrationRequest) (*Receipt, error) {
	started := time.Now()
	rec, err := e.register(st, who, tx, req)
	return e.finish(domain.KindRegistration, req.RegistrationID, tx, started, rec, err)
}

func (e *Engine) register(st ledger.State, who identity.Identity, tx TxInfo, req RegistrationRequest) (*Receipt, error) {
	s := e.newSession(st)
	var issuer, mspID string

	checks := validate.NewPipeline().
		Then("identity", func() (err error) {
			issuer, mspID, err = identity.Resolve(who)
			return err
		}).
		Then("registration id", func() error { return validate.ActivityID(req.RegistrationID, domain.KindRegistration) }).
		Then("registration unique", func() error { return s.uniqueActivity(registrationLabel, req.RegistrationID) })
	batchIDChecks(checks, s, &req.OutputBatch)
	checks.Then("production unit", func() error {
		return validate.NonEmpty("production unit internal ID", req.ProductionUnitInternalID)
	})
	batchAttributeChecks(checks, &req.OutputBatch)
	checks.Then("final score", func() error { return validate.Score("final score", req.FinalScore) })

	if _, err := checks.Run(); err != nil {
		return nil, err
	}

	puID := domain.ProductionUnitID(mspID, req.ProductionUnitInternalID)
	batch := req.build(puID, []string{req.RegistrationID})
	if err := s.batches.Put(batch); err != nil {
		return nil, err
	}

	registration := &domain.Registration{
		DocType:                  string(domain.KindRegistration),
		ID:                       req.RegistrationID,
		ProductionUnitID:         puID,
		ProductionUnitInternalID: req.ProductionUnitInternalID,
		Issuer:                   issuer,
		IssuerMSPID:              mspID,
		TxID:                     tx.ID,
		Timestamp:                tx.Timestamp,
		NewBatchID:               batch.ID,
		FinalScore:               req.FinalScore,
	}
	payload, err := s.commit(domain.KindRegistration, registration.ID, registration)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Kind:       domain.KindRegistration,
		ActivityID: registration.ID,
		BatchIDs:   []string{batch.ID},
		Message:    fmt.Sprintf("registration [%s] & batch [%s] were successfully added to the ledger", registration.ID, batch.ID),
		Event:      domain.KindRegistration.EventName(),
		Payload:    payload,
	}, nil
}
