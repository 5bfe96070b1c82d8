/*
SPDX-License-Identifier: Apache-2.0
*/

package domain

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestCompositionSum(t *testing.T) {
	c := Composition{"cotton": 33.3, "wool": 33.3, "silk": 33.4}
	assert.InDelta(t, 100, c.Sum(), CompositionTolerance)
	assert.Equal(t, []string{"cotton", "silk", "wool"}, c.Materials())
}

func TestBatchConsume(t *testing.T) {
	b := &Batch{ID: "b-1", Quantity: 50}
	assert.False(t, b.Consume(20))
	assert.Equal(t, 30.0, b.Quantity)
	assert.True(t, b.Consume(30))
	assert.Equal(t, 0.0, b.Quantity)

	b = &Batch{ID: "b-2", Quantity: 0.3}
	assert.True(t, b.Consume(0.1+0.2), "float residue below tolerance counts as depleted")
}

func TestBatchCloneIsIndependent(t *testing.T) {
	b := &Batch{ID: "b-1", BatchComposition: Composition{"cotton": 100}, Traceability: []string{"rg-1"}}
	c := b.Clone()
	c.BatchComposition["cotton"] = 50
	c.Trace("t-1")
	assert.Equal(t, 100.0, b.BatchComposition["cotton"])
	assert.Equal(t, []string{"rg-1"}, b.Traceability)
}

func TestParseActivityID(t *testing.T) {
	k, ok := ParseActivityID("rc-7")
	assert.True(t, ok)
	assert.Equal(t, KindReception, k)
	assert.Equal(t, "ReceptionCreated", k.EventName())

	_, ok = ParseActivityID("x-7")
	assert.False(t, ok)
}

func TestErrorClassification(t *testing.T) {
	err := errors.Wrap(NewError(ErrKindDuplicateID, "batch [%s] already exists", "b-1"), "create registration")
	assert.Equal(t, ErrKindDuplicateID, KindOf(err))
	assert.True(t, IsInvalidIdentifier(err))
	assert.Contains(t, err.Error(), "batch [b-1] already exists")

	assert.Equal(t, ErrKindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, ErrKindInternal))
	assert.Equal(t, NotEnrolledMessage, ErrNotEnrolled().Error())
}
