/*
SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"encoding/json"
	"strconv"

	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/engine"
)

// Positional argument counts of the activity functions.
const (
	registrationArity = 10
	productionArity   = 15
	receptionArity    = 11
	transportArity    = 7
)

// argReader decodes positional string arguments and keeps the first failure.
type argReader struct {
	args []string
	err  error
}

func (r *argReader) float(i int, name string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(r.args[i], 64)
	if err != nil {
		r.err = domain.WrapError(domain.ErrKindMalformedRequest, err, "could not parse %s (argument %d) as a number", name, i)
	}
	return v
}

func (r *argReader) bool(i int, name string) bool {
	if r.err != nil {
		return false
	}
	v, err := strconv.ParseBool(r.args[i])
	if err != nil {
		r.err = domain.WrapError(domain.ErrKindMalformedRequest, err, "could not parse %s (argument %d) as a boolean", name, i)
	}
	return v
}

func (r *argReader) quantities(i int, name string) map[string]float64 {
	if r.err != nil {
		return nil
	}
	out := make(map[string]float64)
	if err := json.Unmarshal([]byte(r.args[i]), &out); err != nil {
		r.err = domain.WrapError(domain.ErrKindMalformedRequest, err, "could not parse %s (argument %d) as a JSON object of numbers", name, i)
	}
	return out
}

func checkArity(function string, args []string, want int) error {
	if len(args) != want {
		return domain.NewError(domain.ErrKindMalformedRequest, "incorrect number of arguments for %s: expecting %d, got %d", function, want, len(args))
	}
	return nil
}

// RegistrationArgs decodes registrationID, productionUnitInternalID, batchID,
// batchType, batchInternalID, supplierID, unit, quantity, finalScore and
// batchComposition.
func RegistrationArgs(args []string) (engine.RegistrationRequest, error) {
	if err := checkArity("CreateRegistration", args, registrationArity); err != nil {
		return engine.RegistrationRequest{}, err
	}
	r := &argReader{args: args}
	req := engine.RegistrationRequest{
		RegistrationID:           args[0],
		ProductionUnitInternalID: args[1],
		OutputBatch: engine.OutputBatch{
			BatchID:          args[2],
			BatchType:        domain.BatchType(args[3]),
			BatchInternalID:  args[4],
			SupplierID:       args[5],
			Unit:             domain.Unit(args[6]),
			Quantity:         r.float(7, "quantity"),
			FinalScore:       r.float(8, "finalScore"),
			BatchComposition: domain.Composition(r.quantities(9, "batchComposition")),
		},
	}
	return req, r.err
}

// ProductionArgs decodes productionID, productionUnitInternalID,
// productionType, activityStartDate, batchID, batchType, batchInternalID,
// supplierID, unit, inputBatches, batchComposition, quantity, finalScore,
// productionScore and ses.
func ProductionArgs(args []string) (engine.ProductionRequest, error) {
	if err := checkArity("CreateProduction", args, productionArity); err != nil {
		return engine.ProductionRequest{}, err
	}
	r := &argReader{args: args}
	req := engine.ProductionRequest{
		ProductionID:             args[0],
		ProductionUnitInternalID: args[1],
		ProductionType:           domain.ProductionType(args[2]),
		ActivityStartDate:        args[3],
		InputBatches:             r.quantities(9, "inputBatches"),
		OutputBatch: engine.OutputBatch{
			BatchID:          args[4],
			BatchType:        domain.BatchType(args[5]),
			BatchInternalID:  args[6],
			SupplierID:       args[7],
			Unit:             domain.Unit(args[8]),
			BatchComposition: domain.Composition(r.quantities(10, "batchComposition")),
			Quantity:         r.float(11, "quantity"),
			FinalScore:       r.float(12, "finalScore"),
		},
		ProductionScore: r.float(13, "productionScore"),
		SES:             r.float(14, "ses"),
	}
	return req, r.err
}

// ReceptionArgs decodes receptionID, productionUnitInternalID, activityDate,
// receivedBatchID, newBatchID, newBatchInternalID, isAccepted,
// transportScore, ses, distance and cost.
func ReceptionArgs(args []string) (engine.ReceptionRequest, error) {
	if err := checkArity("CreateReception", args, receptionArity); err != nil {
		return engine.ReceptionRequest{}, err
	}
	r := &argReader{args: args}
	req := engine.ReceptionRequest{
		ReceptionID:              args[0],
		ProductionUnitInternalID: args[1],
		ActivityDate:             args[2],
		ReceivedBatchID:          args[3],
		NewBatchID:               args[4],
		NewBatchInternalID:       args[5],
		IsAccepted:               r.bool(6, "isAccepted"),
		TransportScore:           r.float(7, "transportScore"),
		SES:                      r.float(8, "ses"),
		Distance:                 r.float(9, "distance"),
		Cost:                     r.float(10, "cost"),
	}
	return req, r.err
}

// TransportArgs decodes transportID, originProductionUnitInternalID,
// destinationProductionUnitID, transportType, activityDate, inputBatch and
// isReturn.
func TransportArgs(args []string) (engine.TransportRequest, error) {
	if err := checkArity("CreateTransport", args, transportArity); err != nil {
		return engine.TransportRequest{}, err
	}
	r := &argReader{args: args}
	req := engine.TransportRequest{
		TransportID:                    args[0],
		OriginProductionUnitInternalID: args[1],
		DestinationProductionUnitID:    args[2],
		TransportType:                  domain.TransportType(args[3]),
		ActivityDate:                   args[4],
		InputBatch:                     r.quantities(5, "inputBatch"),
		IsReturn:                       r.bool(6, "isReturn"),
	}
	return req, r.err
}
