/*
SPDX-License-Identifier: Apache-2.0
*/

// Package engine implements the activity processors of the traceability
// ledger. Each processor validates one request against the world state and
// either stages and flushes every resulting write or writes nothing.
package engine

import (
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/ledger"
	"github.com/textrace/traceability-chaincode/internal/metrics"
	"github.com/textrace/traceability-chaincode/internal/validate"
)

// Duplicate-id labels. Clients match on these texts.
const (
	registrationLabel = "registration"
	productionLabel   = "production"
	receptionLabel    = "reception"
	transportLabel    = "transport activity"
)

// Engine runs the activity processors. It holds no ledger state; every call
// works against the State it is given.
type Engine struct {
	log     *zap.Logger
	metrics *metrics.Registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger; nil keeps the no-op default.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics records commits and rejections in m. A nil registry is a no-op.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// New returns an Engine. It logs nothing unless WithLogger is given.
func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TxInfo identifies the ledger transaction an activity is processed in.
type TxInfo struct {
	ID        string
	Timestamp time.Time
}

// Receipt describes a committed activity.
type Receipt struct {
	Kind       domain.ActivityKind
	ActivityID string
	// BatchIDs lists the batches written by the activity, created or updated.
	BatchIDs []string
	Message  string
	Event    string
	Payload  []byte
}

func (e *Engine) finish(kind domain.ActivityKind, id string, tx TxInfo, started time.Time, rec *Receipt, err error) (*Receipt, error) {
	took := time.Since(started)
	if err != nil {
		errKind := domain.KindOf(err)
		e.log.Debug("activity rejected",
			zap.String("activity", kind.Name()),
			zap.String("id", id),
			zap.String("kind", string(errKind)),
			zap.String("tx_id", tx.ID),
			zap.Error(err),
		)
		e.metrics.ObserveRejection(kind.Name(), string(errKind), took)
		return nil, err
	}
	e.log.Info("activity committed",
		zap.String("activity", kind.Name()),
		zap.String("id", id),
		zap.Strings("batches", rec.BatchIDs),
		zap.String("tx_id", tx.ID),
		zap.Duration("took", took),
	)
	e.metrics.ObserveCommit(kind.Name(), took)
	return rec, nil
}

// session is the per-request view of the world state. Writes are staged and
// reach the state only in commit.
type session struct {
	ws         *ledger.WriteSet
	batches    *ledger.BatchStore
	activities *ledger.ActivityLog
	log        *zap.Logger
}

func (e *Engine) newSession(st ledger.State) *session {
	ws := ledger.NewWriteSet(st)
	return &session{
		log:        e.log,
		ws:         ws,
		batches:    ledger.NewBatchStore(ws),
		activities: ledger.NewActivityLog(ws),
	}
}

func (s *session) uniqueActivity(label, id string) error {
	exists, err := s.activities.Exists(id)
	if err != nil {
		return err
	}
	return validate.Unique(exists, label, id)
}

func (s *session) uniqueBatch(id string) error {
	exists, err := s.batches.Exists(id)
	if err != nil {
		return err
	}
	return validate.Unique(exists, "batch", id)
}

// rejectedAt returns the reception id when the latest activity of b is a
// rejected reception, or "".
func (s *session) rejectedAt(b *domain.Batch) (string, error) {
	if len(b.Traceability) == 0 {
		return "", nil
	}
	last := b.Traceability[len(b.Traceability)-1]
	if kind, ok := domain.ParseActivityID(last); !ok || kind != domain.KindReception {
		return "", nil
	}
	rc := new(domain.Reception)
	if err := s.activities.Get(domain.KindReception, last, rc); err != nil {
		return "", err
	}
	if rc.IsAccepted {
		return "", nil
	}
	return last, nil
}

// commit appends the activity and flushes every staged write. It returns the
// stored activity JSON.
func (s *session) commit(kind domain.ActivityKind, id string, record interface{}) ([]byte, error) {
	if err := s.activities.Append(kind, id, record); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindInternal, err, "could not marshal %s [%s]", kind.Name(), id)
	}
	s.log.Debug("flushing staged writes",
		zap.String("id", id),
		zap.Int("count", s.ws.Len()),
		zap.Strings("keys", s.ws.Keys()),
	)
	if err := s.ws.Flush(); err != nil {
		return nil, err
	}
	return payload, nil
}

// OutputBatch describes a batch created by a registration or a production.
type OutputBatch struct {
	BatchID          string
	BatchType        domain.BatchType
	BatchInternalID  string
	SupplierID       string
	Unit             domain.Unit
	Quantity         float64
	FinalScore       float64
	BatchComposition domain.Composition
}

// batchIDChecks appends the id format and uniqueness checks of out.
func batchIDChecks(p *validate.Pipeline, s *session, out *OutputBatch) {
	p.Then("batch id", func() error { return validate.BatchID(out.BatchID) }).
		Then("batch unique", func() error { return s.uniqueBatch(out.BatchID) })
}

// batchAttributeChecks appends the attribute checks of out, from internal id
// to quantity.
func batchAttributeChecks(p *validate.Pipeline, out *OutputBatch) {
	p.Then("batch internal id", func() error { return validate.NonEmpty("batch internal ID", out.BatchInternalID) }).
		Then("supplier id", func() error { return validate.NonEmpty("supplier ID", out.SupplierID) }).
		Then("batch type", func() error {
			_, err := validate.BatchType(string(out.BatchType))
			return err
		}).
		Then("unit", func() error {
			_, err := validate.Unit(string(out.Unit))
			return err
		}).
		Then("composition", func() error { return validate.Composition(out.BatchComposition) }).
		Then("quantity", func() error { return validate.Positive("batch quantity", out.Quantity) })
}

func (o *OutputBatch) build(owner string, trace []string) *domain.Batch {
	return &domain.Batch{
		ID:               o.BatchID,
		BatchType:        o.BatchType,
		LatestOwner:      owner,
		BatchInternalID:  o.BatchInternalID,
		SupplierID:       o.SupplierID,
		Quantity:         o.Quantity,
		Unit:             o.Unit,
		FinalScore:       o.FinalScore,
		BatchComposition: o.BatchComposition.Clone(),
		Traceability:     trace,
	}
}

func sortedIDs(m map[string]float64) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func notAfterTx(label string, date time.Time, tx TxInfo) error {
	if tx.Timestamp.IsZero() {
		return nil
	}
	return validate.DateOrder(label, date, tx.Timestamp)
}
