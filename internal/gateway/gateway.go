/*
SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/engine"
	"github.com/textrace/traceability-chaincode/internal/identity"
	"github.com/textrace/traceability-chaincode/internal/ledger"
	"github.com/textrace/traceability-chaincode/internal/metrics"
)

// DefaultContract is the contract name activities are served under.
const DefaultContract = "TraceabilityContract"

// Response is the gateway reply. Status follows HTTP semantics.
type Response struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	TxID    string          `json:"txID,omitempty"`
	Event   string          `json:"event,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OK reports whether the request succeeded.
func (r Response) OK() bool { return r.Status == fasthttp.StatusOK }

type submitFunc func(e *engine.Engine, st ledger.State, who identity.Identity, tx engine.TxInfo, args []string) (*engine.Receipt, error)

type queryFunc func(e *engine.Engine, st ledger.State, args []string) (interface{}, error)

type function struct {
	arity  int
	submit submitFunc
	query  queryFunc
}

var functions = map[string]function{
	"CreateRegistration": {arity: registrationArity, submit: func(e *engine.Engine, st ledger.State, who identity.Identity, tx engine.TxInfo, args []string) (*engine.Receipt, error) {
		req, err := RegistrationArgs(args)
		if err != nil {
			return nil, err
		}
		return e.Register(st, who, tx, req)
	}},
	"CreateProduction": {arity: productionArity, submit: func(e *engine.Engine, st ledger.State, who identity.Identity, tx engine.TxInfo, args []string) (*engine.Receipt, error) {
		req, err := ProductionArgs(args)
		if err != nil {
			return nil, err
		}
		return e.Produce(st, who, tx, req)
	}},
	"CreateReception": {arity: receptionArity, submit: func(e *engine.Engine, st ledger.State, who identity.Identity, tx engine.TxInfo, args []string) (*engine.Receipt, error) {
		req, err := ReceptionArgs(args)
		if err != nil {
			return nil, err
		}
		return e.Receive(st, who, tx, req)
	}},
	"CreateTransport": {arity: transportArity, submit: func(e *engine.Engine, st ledger.State, who identity.Identity, tx engine.TxInfo, args []string) (*engine.Receipt, error) {
		req, err := TransportArgs(args)
		if err != nil {
			return nil, err
		}
		return e.Ship(st, who, tx, req)
	}},
	"BatchExists": {arity: 1, query: func(e *engine.Engine, st ledger.State, args []string) (interface{}, error) {
		return e.BatchExists(st, args[0])
	}},
	"ReadBatch": {arity: 1, query: func(e *engine.Engine, st ledger.State, args []string) (interface{}, error) {
		return e.ReadBatch(st, args[0])
	}},
	"GetAvailableBatches": {arity: 0, query: func(e *engine.Engine, st ledger.State, _ []string) (interface{}, error) {
		return e.AvailableBatches(st)
	}},
	"TraceBatchByInternalID": {arity: 1, query: func(e *engine.Engine, st ledger.State, args []string) (interface{}, error) {
		return e.TraceBatchByInternalID(st, args[0])
	}},
	"ActivityExists": {arity: 1, query: func(e *engine.Engine, st ledger.State, args []string) (interface{}, error) {
		return e.ActivityExists(st, args[0])
	}},
	"ReadRegistration": {arity: 1, query: func(e *engine.Engine, st ledger.State, args []string) (interface{}, error) {
		return e.ReadRegistration(st, args[0])
	}},
	"ReadProduction": {arity: 1, query: func(e *engine.Engine, st ledger.State, args []string) (interface{}, error) {
		return e.ReadProduction(st, args[0])
	}},
	"ReadReception": {arity: 1, query: func(e *engine.Engine, st ledger.State, args []string) (interface{}, error) {
		return e.ReadReception(st, args[0])
	}},
	"ReadTransport": {arity: 1, query: func(e *engine.Engine, st ledger.State, args []string) (interface{}, error) {
		return e.ReadTransport(st, args[0])
	}},
	"GetAllRegistrations": {arity: 0, query: func(e *engine.Engine, st ledger.State, _ []string) (interface{}, error) {
		return e.AllRegistrations(st)
	}},
	"GetAllProductions": {arity: 0, query: func(e *engine.Engine, st ledger.State, _ []string) (interface{}, error) {
		return e.AllProductions(st)
	}},
	"GetAllReceptions": {arity: 0, query: func(e *engine.Engine, st ledger.State, _ []string) (interface{}, error) {
		return e.AllReceptions(st)
	}},
	"GetAllTransports": {arity: 0, query: func(e *engine.Engine, st ledger.State, _ []string) (interface{}, error) {
		return e.AllTransports(st)
	}},
}

// Gateway serves decoded calls against a local world state. Each call runs
// in its own store transaction.
type Gateway struct {
	contract string
	store    *ledger.Store
	engine   *engine.Engine
	log      *zap.Logger
	metrics  *metrics.Registry
	now      func() time.Time
	newTxID  func() string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger; nil keeps the no-op default.
func WithLogger(log *zap.Logger) Option {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

// WithMetrics records conflicts in m.
func WithMetrics(m *metrics.Registry) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock sets the source of transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithTxIDs sets the source of transaction ids.
func WithTxIDs(next func() string) Option {
	return func(g *Gateway) { g.newTxID = next }
}

// WithContract sets the contract name requests must address. It defaults to
// DefaultContract.
func WithContract(name string) Option {
	return func(g *Gateway) { g.contract = name }
}

// New returns a gateway serving eng over store.
func New(store *ledger.Store, eng *engine.Engine, opts ...Option) *Gateway {
	g := &Gateway{
		contract: DefaultContract,
		store:    store,
		engine:   eng,
		log:      zap.NewNop(),
		now:      time.Now,
		newTxID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Functions lists the callable function names.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	return names
}

// Handle decodes a raw request and invokes it.
func (g *Gateway) Handle(who identity.Identity, channel, chaincode string, body []byte) Response {
	call, err := Decode(channel, chaincode, body)
	if err != nil {
		return g.reject(err)
	}
	return g.Invoke(who, call)
}

// Invoke runs a decoded call.
func (g *Gateway) Invoke(who identity.Identity, call *Call) Response {
	if who == nil || !who.IsEnrolled() {
		return g.reject(domain.ErrNotEnrolled())
	}
	contract := call.Contract
	if contract == "" {
		contract = g.contract
	}
	if contract != g.contract {
		return Response{Status: fasthttp.StatusNotFound, Message: fmt.Sprintf("Contract not found with name %s", contract)}
	}
	fn, ok := functions[call.Function]
	if !ok {
		return Response{Status: fasthttp.StatusNotFound, Message: fmt.Sprintf("Function %s not found in contract %s", call.Function, contract)}
	}
	if err := checkArity(call.Function, call.Args, fn.arity); err != nil {
		return g.reject(err)
	}
	if fn.query != nil {
		return g.query(fn.query, call)
	}
	return g.submit(fn.submit, who, call)
}

func (g *Gateway) submit(run submitFunc, who identity.Identity, call *Call) Response {
	info := engine.TxInfo{ID: g.newTxID(), Timestamp: g.now().UTC()}
	var rec *engine.Receipt
	err := g.store.Update(func(tx *ledger.Tx) (err error) {
		rec, err = run(g.engine, tx, who, info, call.Args)
		return err
	})
	switch {
	case err == nil:
	case rec == nil:
		return g.reject(err)
	case errors.Is(err, ledger.ErrConflict):
		g.metrics.ObserveConflict()
		g.log.Warn("transaction conflict", zap.String("function", call.Function), zap.String("tx_id", info.ID), zap.Error(err))
		return Response{Status: fasthttp.StatusConflict, Message: err.Error(), TxID: info.ID}
	default:
		return g.reject(domain.WrapError(domain.ErrKindStoreWriteFailure, err, "failed to commit transaction [%s]", info.ID))
	}
	return Response{
		Status:  fasthttp.StatusOK,
		Message: rec.Message,
		TxID:    info.ID,
		Event:   rec.Event,
		Data:    rec.Payload,
	}
}

func (g *Gateway) query(run queryFunc, call *Call) Response {
	tx := g.store.Begin()
	defer tx.Rollback()
	out, err := run(g.engine, tx, call.Args)
	if err != nil {
		return g.reject(err)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return g.reject(domain.WrapError(domain.ErrKindInternal, err, "could not marshal %s result", call.Function))
	}
	return Response{Status: fasthttp.StatusOK, Data: data}
}

func (g *Gateway) reject(err error) Response {
	status := StatusOf(err)
	if status >= fasthttp.StatusInternalServerError {
		g.log.Error("request failed", zap.Error(err))
	}
	return Response{Status: status, Message: err.Error()}
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	if err == nil {
		return fasthttp.StatusOK
	}
	switch domain.KindOf(err) {
	case domain.ErrKindUnauthorized:
		return fasthttp.StatusForbidden
	case domain.ErrKindMalformedRequest,
		domain.ErrKindInvalidID,
		domain.ErrKindInvalidEnum,
		domain.ErrKindEmptyField,
		domain.ErrKindOutOfRange,
		domain.ErrKindEmptyComposition,
		domain.ErrKindNonPositivePercentage,
		domain.ErrKindCompositionSumMismatch,
		domain.ErrKindNonPositiveQuantity,
		domain.ErrKindQuantityExceedsAvailable,
		domain.ErrKindInvalidDateRange:
		return fasthttp.StatusBadRequest
	case domain.ErrKindBatchNotFound, domain.ErrKindActivityNotFound:
		return fasthttp.StatusNotFound
	case domain.ErrKindDuplicateID, domain.ErrKindBatchInTransit, domain.ErrKindOwnership:
		return fasthttp.StatusConflict
	}
	return fasthttp.StatusInternalServerError
}
