/*
SPDX-License-Identifier: Apache-2.0
*/

package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies a rejection so that callers can react without parsing
// message text.
type ErrorKind string

const (
	ErrKindUnauthorized             ErrorKind = "UNAUTHORIZED"
	ErrKindMalformedRequest         ErrorKind = "MALFORMED_REQUEST"
	ErrKindInvalidID                ErrorKind = "INVALID_ID"
	ErrKindDuplicateID              ErrorKind = "DUPLICATE_ID"
	ErrKindInvalidEnum              ErrorKind = "INVALID_ENUM"
	ErrKindEmptyField               ErrorKind = "EMPTY_FIELD"
	ErrKindOutOfRange               ErrorKind = "OUT_OF_RANGE"
	ErrKindEmptyComposition         ErrorKind = "EMPTY_COMPOSITION"
	ErrKindNonPositivePercentage    ErrorKind = "NON_POSITIVE_PERCENTAGE"
	ErrKindCompositionSumMismatch   ErrorKind = "COMPOSITION_SUM_MISMATCH"
	ErrKindNonPositiveQuantity      ErrorKind = "NON_POSITIVE_QUANTITY"
	ErrKindQuantityExceedsAvailable ErrorKind = "QUANTITY_EXCEEDS_AVAILABLE"
	ErrKindBatchNotFound            ErrorKind = "BATCH_NOT_FOUND"
	ErrKindActivityNotFound         ErrorKind = "ACTIVITY_NOT_FOUND"
	ErrKindBatchInTransit           ErrorKind = "BATCH_IN_TRANSIT_CONFLICT"
	ErrKindOwnership                ErrorKind = "OWNERSHIP_CONFLICT"
	ErrKindInvalidDateRange         ErrorKind = "INVALID_DATE_RANGE"
	ErrKindIdentityResolution       ErrorKind = "IDENTITY_RESOLUTION"
	ErrKindStoreWriteFailure        ErrorKind = "STORE_WRITE_FAILURE"
	ErrKindInternal                 ErrorKind = "INTERNAL"
)

// NotEnrolledMessage is the rejection text for callers without a valid enrollment.
const NotEnrolledMessage = "User with provided token is not enrolled"

// Error is a classified rejection.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a classified error with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error, keeping it in the chain.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: errors.WithStack(err)}
}

// KindOf returns the kind of the first classified error in the chain, or
// ErrKindInternal when err carries no classification.
func KindOf(err error) ErrorKind {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Kind
	}
	return ErrKindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// IsInvalidIdentifier covers empty, malformed and duplicate ids.
func IsInvalidIdentifier(err error) bool {
	k := KindOf(err)
	return err != nil && (k == ErrKindInvalidID || k == ErrKindDuplicateID)
}

// ErrNotEnrolled is returned before any other check when the caller has no
// valid enrollment.
func ErrNotEnrolled() *Error {
	return NewError(ErrKindUnauthorized, NotEnrolledMessage)
}
