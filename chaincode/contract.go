/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-contract-api-go/metadata"
	"go.uber.org/zap"

	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/engine"
	"github.com/textrace/traceability-chaincode/internal/gateway"
)

// TraceabilityContract records textile batches and the activities that
// register, transform, ship and receive them.
type TraceabilityContract struct {
	contractapi.Contract
	engine *engine.Engine
	log    *zap.Logger
}

func newContract(eng *engine.Engine, log *zap.Logger, version string) *TraceabilityContract {
	if eng == nil {
		eng = engine.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &TraceabilityContract{engine: eng, log: log}
	c.Name = gateway.DefaultContract
	c.Info.Title = "Textile traceability contract"
	c.Info.Version = version
	c.Info.License = &metadata.LicenseMetadata{Name: "Apache-2.0"}
	return c
}

// emit publishes the activity event and returns the confirmation message.
func (c *TraceabilityContract) emit(ctx contractapi.TransactionContextInterface, rec *engine.Receipt, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if err := ctx.GetStub().SetEvent(rec.Event, rec.Payload); err != nil {
		return "", domain.WrapError(domain.ErrKindInternal, err, "could not set %s event", rec.Event)
	}
	c.log.Debug("event set", zap.String("event", rec.Event), zap.String("activity_id", rec.ActivityID))
	return rec.Message, nil
}

func (c *TraceabilityContract) run(ctx contractapi.TransactionContextInterface, fn func(stubState, engine.TxInfo) (*engine.Receipt, error)) (string, error) {
	stub := ctx.GetStub()
	tx, err := txInfo(stub)
	if err != nil {
		return "", domain.WrapError(domain.ErrKindInternal, err, "could not read transaction timestamp")
	}
	rec, err := fn(stubState{stub: stub}, tx)
	return c.emit(ctx, rec, err)
}

// CreateRegistration registers a raw batch owned by the submitter's
// production unit.
func (c *TraceabilityContract) CreateRegistration(ctx contractapi.TransactionContextInterface,
	registrationID, productionUnitInternalID, batchID, batchType, batchInternalID, supplierID, unit string,
	quantity, finalScore float64, batchComposition map[string]float64) (string, error) {
	return c.run(ctx, func(st stubState, tx engine.TxInfo) (*engine.Receipt, error) {
		return c.engine.Register(st, submitter(ctx), tx, engine.RegistrationRequest{
			RegistrationID:           registrationID,
			ProductionUnitInternalID: productionUnitInternalID,
			OutputBatch: engine.OutputBatch{
				BatchID:          batchID,
				BatchType:        domain.BatchType(batchType),
				BatchInternalID:  batchInternalID,
				SupplierID:       supplierID,
				Unit:             domain.Unit(unit),
				Quantity:         quantity,
				FinalScore:       finalScore,
				BatchComposition: batchComposition,
			},
		})
	})
}

// CreateProduction consumes input batches and creates one output batch.
func (c *TraceabilityContract) CreateProduction(ctx contractapi.TransactionContextInterface,
	productionID, productionUnitInternalID, productionType, activityStartDate,
	batchID, batchType, batchInternalID, supplierID, unit string,
	inputBatches, batchComposition map[string]float64,
	quantity, finalScore, productionScore, ses float64) (string, error) {
	return c.run(ctx, func(st stubState, tx engine.TxInfo) (*engine.Receipt, error) {
		return c.engine.Produce(st, submitter(ctx), tx, engine.ProductionRequest{
			ProductionID:             productionID,
			ProductionUnitInternalID: productionUnitInternalID,
			ProductionType:           domain.ProductionType(productionType),
			ActivityStartDate:        activityStartDate,
			InputBatches:             inputBatches,
			ProductionScore:          productionScore,
			SES:                      ses,
			OutputBatch: engine.OutputBatch{
				BatchID:          batchID,
				BatchType:        domain.BatchType(batchType),
				BatchInternalID:  batchInternalID,
				SupplierID:       supplierID,
				Unit:             domain.Unit(unit),
				Quantity:         quantity,
				FinalScore:       finalScore,
				BatchComposition: batchComposition,
			},
		})
	})
}

// CreateReception settles an in-transit batch at its destination.
func (c *TraceabilityContract) CreateReception(ctx contractapi.TransactionContextInterface,
	receptionID, productionUnitInternalID, activityDate, receivedBatchID, newBatchID, newBatchInternalID string,
	isAccepted bool, transportScore, ses, distance, cost float64) (string, error) {
	return c.run(ctx, func(st stubState, tx engine.TxInfo) (*engine.Receipt, error) {
		return c.engine.Receive(st, submitter(ctx), tx, engine.ReceptionRequest{
			ReceptionID:              receptionID,
			ProductionUnitInternalID: productionUnitInternalID,
			ActivityDate:             activityDate,
			ReceivedBatchID:          receivedBatchID,
			NewBatchID:               newBatchID,
			NewBatchInternalID:       newBatchInternalID,
			IsAccepted:               isAccepted,
			TransportScore:           transportScore,
			SES:                      ses,
			Distance:                 distance,
			Cost:                     cost,
		})
	})
}

// CreateTransport ships a batch, or part of it, to another production unit.
func (c *TraceabilityContract) CreateTransport(ctx contractapi.TransactionContextInterface,
	transportID, originProductionUnitInternalID, destinationProductionUnitID, transportType, activityDate string,
	inputBatch map[string]float64, isReturn bool) (string, error) {
	return c.run(ctx, func(st stubState, tx engine.TxInfo) (*engine.Receipt, error) {
		return c.engine.Ship(st, submitter(ctx), tx, engine.TransportRequest{
			TransportID:                    transportID,
			OriginProductionUnitInternalID: originProductionUnitInternalID,
			DestinationProductionUnitID:    destinationProductionUnitID,
			TransportType:                  domain.TransportType(transportType),
			ActivityDate:                   activityDate,
			InputBatch:                     inputBatch,
			IsReturn:                       isReturn,
		})
	})
}

// BatchExists returns true when a batch with given ID exists in world state.
func (c *TraceabilityContract) BatchExists(ctx contractapi.TransactionContextInterface, batchID string) (bool, error) {
	return c.engine.BatchExists(stubState{stub: ctx.GetStub()}, batchID)
}

// ReadBatch returns the batch stored in the world state with given id.
func (c *TraceabilityContract) ReadBatch(ctx contractapi.TransactionContextInterface, batchID string) (*domain.Batch, error) {
	return c.engine.ReadBatch(stubState{stub: ctx.GetStub()}, batchID)
}

// GetAvailableBatches returns every batch in the world state.
func (c *TraceabilityContract) GetAvailableBatches(ctx contractapi.TransactionContextInterface) ([]*domain.Batch, error) {
	return c.engine.AvailableBatches(stubState{stub: ctx.GetStub()})
}

// TraceBatchByInternalID returns the batches sharing a producer-assigned id.
func (c *TraceabilityContract) TraceBatchByInternalID(ctx contractapi.TransactionContextInterface, batchInternalID string) ([]*domain.Batch, error) {
	return c.engine.TraceBatchByInternalID(stubState{stub: ctx.GetStub()}, batchInternalID)
}

// ActivityExists returns true when an activity with given ID exists in world state.
func (c *TraceabilityContract) ActivityExists(ctx contractapi.TransactionContextInterface, activityID string) (bool, error) {
	return c.engine.ActivityExists(stubState{stub: ctx.GetStub()}, activityID)
}

// Activity records carry timestamps, so they are returned as JSON text.

// ReadRegistration returns the registration stored with given id.
func (c *TraceabilityContract) ReadRegistration(ctx contractapi.TransactionContextInterface, registrationID string) (string, error) {
	return jsonText(c.engine.ReadRegistration(stubState{stub: ctx.GetStub()}, registrationID))
}

// ReadProduction returns the production stored with given id.
func (c *TraceabilityContract) ReadProduction(ctx contractapi.TransactionContextInterface, productionID string) (string, error) {
	return jsonText(c.engine.ReadProduction(stubState{stub: ctx.GetStub()}, productionID))
}

// ReadReception returns the reception stored with given id.
func (c *TraceabilityContract) ReadReception(ctx contractapi.TransactionContextInterface, receptionID string) (string, error) {
	return jsonText(c.engine.ReadReception(stubState{stub: ctx.GetStub()}, receptionID))
}

// ReadTransport returns the transport stored with given id.
func (c *TraceabilityContract) ReadTransport(ctx contractapi.TransactionContextInterface, transportID string) (string, error) {
	return jsonText(c.engine.ReadTransport(stubState{stub: ctx.GetStub()}, transportID))
}

// GetAllRegistrations returns every registration as a JSON array.
func (c *TraceabilityContract) GetAllRegistrations(ctx contractapi.TransactionContextInterface) (string, error) {
	return jsonText(c.engine.AllRegistrations(stubState{stub: ctx.GetStub()}))
}

// GetAllProductions returns every production as a JSON array.
func (c *TraceabilityContract) GetAllProductions(ctx contractapi.TransactionContextInterface) (string, error) {
	return jsonText(c.engine.AllProductions(stubState{stub: ctx.GetStub()}))
}

// GetAllReceptions returns every reception as a JSON array.
func (c *TraceabilityContract) GetAllReceptions(ctx contractapi.TransactionContextInterface) (string, error) {
	return jsonText(c.engine.AllReceptions(stubState{stub: ctx.GetStub()}))
}

// GetAllTransports returns every transport as a JSON array.
func (c *TraceabilityContract) GetAllTransports(ctx contractapi.TransactionContextInterface) (string, error) {
	return jsonText(c.engine.AllTransports(stubState{stub: ctx.GetStub()}))
}

func jsonText(record interface{}, err error) (string, error) {
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", errors.Wrap(err, "marshal activity")
	}
	return string(data), nil
}
