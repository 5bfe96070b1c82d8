/*
SPDX-License-Identifier: Apache-2.0
*/

// Package validate holds the stateless checks applied to activity requests.
// Every check returns nil or a *domain.Error whose message is the text
// reported to the caller.
package validate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

// MinScore and MaxScore bound every score, inclusive.
const (
	MinScore = -10.0
	MaxScore = 10.0
)

// ActivityID checks that id carries the prefix of kind.
func ActivityID(id string, kind domain.ActivityKind) error {
	found, ok := domain.ParseActivityID(id)
	if !ok {
		return domain.NewError(domain.ErrKindInvalidID, "incorrect activity prefix")
	}
	if found != kind {
		return domain.NewError(domain.ErrKindInvalidID, "activity ID prefix must match its type (should be [%s...])", kind.Prefix())
	}
	return nil
}

// BatchID checks the batch id prefix and that something follows it.
func BatchID(id string) error {
	if !strings.HasPrefix(id, domain.BatchPrefix) || len(id) == len(domain.BatchPrefix) {
		return domain.NewError(domain.ErrKindInvalidID, "incorrect batch prefix. (should be [%s...])", domain.BatchPrefix)
	}
	return nil
}

// Unique fails with DuplicateID when a record already exists under the key.
// The label names the record in the message, e.g. "registration".
func Unique(exists bool, label, id string) error {
	if exists {
		return domain.NewError(domain.ErrKindDuplicateID, "%s [%s] already exists", label, id)
	}
	return nil
}

// NonEmpty fails with EmptyField when value is blank.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewError(domain.ErrKindEmptyField, "%s must not be empty", field)
	}
	return nil
}

// BatchType parses a batch type.
func BatchType(value string) (domain.BatchType, error) {
	t := domain.BatchType(value)
	if !t.Valid() {
		return "", domain.NewError(domain.ErrKindInvalidEnum, "could not validate batch type: batch type [%s] not found", value)
	}
	return t, nil
}

// Unit parses a measurement unit.
func Unit(value string) (domain.Unit, error) {
	u := domain.Unit(value)
	if !u.Valid() {
		return "", domain.NewError(domain.ErrKindInvalidEnum, "could not validate batch unit: unit [%s] not found", value)
	}
	return u, nil
}

// ProductionType parses a production type.
func ProductionType(value string) (domain.ProductionType, error) {
	p := domain.ProductionType(value)
	if !p.Valid() {
		return "", domain.NewError(domain.ErrKindInvalidEnum, "could not validate activity type: production type [%s] not found", value)
	}
	return p, nil
}

// TransportType parses a transport type.
func TransportType(value string) (domain.TransportType, error) {
	t := domain.TransportType(value)
	if !t.Valid() {
		return "", domain.NewError(domain.ErrKindInvalidEnum, "could not validate activity type: transport type [%s] not found", value)
	}
	return t, nil
}

// Score checks -10 <= score <= 10.
func Score(name string, score float64) error {
	if math.IsNaN(score) || score < MinScore || score > MaxScore {
		return domain.NewError(domain.ErrKindOutOfRange, "invalid score: %s must be between %.0f and %.0f (got %.2f)", name, MinScore, MaxScore, score)
	}
	return nil
}

// Positive checks 0 < quantity < +Inf.
func Positive(name string, quantity float64) error {
	if !finite(quantity) || quantity <= 0 {
		return domain.NewError(domain.ErrKindNonPositiveQuantity, "%s should be positive (got %.2f)", name, quantity)
	}
	return nil
}

// NonNegative checks value >= 0. The message keeps the "must be 0+" wording.
func NonNegative(name string, value float64) error {
	if !finite(value) || value < 0 {
		return domain.NewError(domain.ErrKindOutOfRange, "%s must be 0+ (got %.2f)", name, value)
	}
	return nil
}

// Composition checks that a batch composition is non-empty, has strictly
// positive percentages, and sums to 100 within domain.CompositionTolerance.
func Composition(c domain.Composition) error {
	if len(c) == 0 {
		return domain.NewError(domain.ErrKindEmptyComposition, "batch composition must have at least one material")
	}
	for _, material := range c.Materials() {
		if pct := c[material]; math.IsNaN(pct) || pct <= 0 {
			return domain.NewError(domain.ErrKindNonPositivePercentage, "batch composition percentages must be greater than 0 ([%s] is %.2f)", material, pct)
		}
	}
	if sum := c.Sum(); math.Abs(sum-100) > domain.CompositionTolerance {
		return domain.NewError(domain.ErrKindCompositionSumMismatch, "batch composition percentage sum should be equal to 100 (got %s)", formatPct(sum))
	}
	return nil
}

// DateOrder fails when start is after end.
func DateOrder(label string, start, end time.Time) error {
	if start.After(end) {
		return domain.NewError(domain.ErrKindInvalidDateRange, "%s can't be after the activity end date: %s > %s",
			label, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// Date parses an RFC3339 activity date.
func Date(label, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrKindInvalidDateRange, err, "could not parse %s", label)
	}
	return t, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
