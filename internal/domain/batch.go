/*
SPDX-License-Identifier: Apache-2.0
*/

package domain

import (
	"math"
	"sort"
)

// BatchPrefix is the key prefix every batch id must carry.
const BatchPrefix = "b-"

// CompositionTolerance is the absolute tolerance used when checking that a
// composition sums to 100.
const CompositionTolerance = 1e-6

// QuantityTolerance is the absolute tolerance under which a remaining quantity
// counts as fully consumed.
const QuantityTolerance = 1e-9

// Composition maps a material name to its percentage of the batch.
type Composition map[string]float64

// Sum returns the total percentage, adding materials in name order so the
// result does not depend on map iteration.
func (c Composition) Sum() float64 {
	var sum float64
	for _, material := range c.Materials() {
		sum += c[material]
	}
	return sum
}

// Materials returns the material names in sorted order.
func (c Composition) Materials() []string {
	materials := make([]string, 0, len(c))
	for material := range c {
		materials = append(materials, material)
	}
	sort.Strings(materials)
	return materials
}

// Clone returns an independent copy.
func (c Composition) Clone() Composition {
	out := make(Composition, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Batch is a tracked quantity of one material or product type, owned by one
// production unit at a time.
type Batch struct {
	DocType          string      `json:"docType"`
	ID               string      `json:"ID"`
	BatchType        BatchType   `json:"batchType"`
	LatestOwner      string      `json:"latestOwner"` // <MSPID>:<production unit internal ID>
	BatchInternalID  string      `json:"batchInternalID"`
	SupplierID       string      `json:"supplierID"`
	IsInTransit      bool        `json:"isInTransit"`
	Destination      string      `json:"destination,omitempty"` // only set while in transit
	Quantity         float64     `json:"quantity"`
	Unit             Unit        `json:"unit"`
	FinalScore       float64     `json:"finalScore"`
	BatchComposition Composition `json:"batchComposition"`
	Traceability     []string    `json:"traceability,omitempty"`
}

// Clone returns a deep copy of the batch.
func (b *Batch) Clone() *Batch {
	out := *b
	out.BatchComposition = b.BatchComposition.Clone()
	out.Traceability = append([]string(nil), b.Traceability...)
	return &out
}

// Consume reduces the batch by qty and reports whether nothing is left.
func (b *Batch) Consume(qty float64) (depleted bool) {
	b.Quantity -= qty
	if math.Abs(b.Quantity) <= QuantityTolerance {
		b.Quantity = 0
		return true
	}
	return false
}

// Trace appends an activity id to the batch's traceability.
func (b *Batch) Trace(activityID string) {
	b.Traceability = append(b.Traceability, activityID)
}

// ProductionUnitID builds the ledger-wide production unit identifier.
func ProductionUnitID(mspID, internalID string) string {
	return mspID + ":" + internalID
}
