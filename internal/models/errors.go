package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies a ValidationError.
type ErrorKind string

const (
	KindNoParticipants     ErrorKind = "NoParticipants"
	KindNegativeShare      ErrorKind = "NegativeShare"
	KindNegativePercentage ErrorKind = "NegativePercentage"
	KindOverAllocated      ErrorKind = "OverAllocated"
	KindNegativeResidual   ErrorKind = "NegativeResidual"
	KindUnsupportedPolicy  ErrorKind = "UnsupportedPolicy"
	KindInvalidAmount      ErrorKind = "InvalidAmount"
	KindUserNotFound       ErrorKind = "UserNotFound"
	KindDuplicateEmail     ErrorKind = "DuplicateEmail"
	KindDuplicateShare     ErrorKind = "DuplicateShare"
	KindShareMismatch      ErrorKind = "ShareMismatch"
	KindMissingField       ErrorKind = "MissingField"
	KindInvalidPassword    ErrorKind = "InvalidPassword"
)

// Sentinels for errors.Is. A *ValidationError matches any sentinel of the same Kind.
var (
	ErrNoParticipants     = &ValidationError{Kind: KindNoParticipants}
	ErrNegativeShare      = &ValidationError{Kind: KindNegativeShare}
	ErrNegativePercentage = &ValidationError{Kind: KindNegativePercentage}
	ErrOverAllocated      = &ValidationError{Kind: KindOverAllocated}
	ErrNegativeResidual   = &ValidationError{Kind: KindNegativeResidual}
	ErrUnsupportedPolicy  = &ValidationError{Kind: KindUnsupportedPolicy}
	ErrInvalidAmount      = &ValidationError{Kind: KindInvalidAmount}
	ErrUserNotFound       = &ValidationError{Kind: KindUserNotFound}
	ErrDuplicateEmail     = &ValidationError{Kind: KindDuplicateEmail}
	ErrDuplicateShare     = &ValidationError{Kind: KindDuplicateShare}
	ErrShareMismatch      = &ValidationError{Kind: KindShareMismatch}
	ErrMissingField       = &ValidationError{Kind: KindMissingField}
	ErrInvalidPassword    = &ValidationError{Kind: KindInvalidPassword}
)

// ValidationError is a recoverable rejection of caller input.
// No state has been modified when one is returned.
type ValidationError struct {
	Kind ErrorKind

	// UserID is the offending user, when the failure concerns one.
	UserID int64

	// Field names the offending input (policy text, email, field name).
	Field string

	// Value is the offending amount or percentage; Limit the bound it broke.
	Value decimal.Decimal
	Limit decimal.Decimal
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindNoParticipants:
		return "no participants to split the expense"
	case KindNegativeShare:
		return fmt.Sprintf("exact amount for user %d cannot be negative: %s", e.UserID, e.Value)
	case KindNegativePercentage:
		return fmt.Sprintf("percentage for user %d cannot be negative: %s", e.UserID, e.Value)
	case KindOverAllocated:
		return fmt.Sprintf("allocation %s exceeds limit %s", e.Value, e.Limit)
	case KindNegativeResidual:
		return fmt.Sprintf("calculated payer share is negative: %s", e.Value)
	case KindUnsupportedPolicy:
		return fmt.Sprintf("unsupported split policy %q", e.Field)
	case KindInvalidAmount:
		return fmt.Sprintf("amount must be greater than zero: %s", e.Value)
	case KindUserNotFound:
		return fmt.Sprintf("user not found: %d", e.UserID)
	case KindDuplicateEmail:
		return fmt.Sprintf("email already exists: %s", e.Field)
	case KindDuplicateShare:
		return fmt.Sprintf("user %d appears more than once in shares", e.UserID)
	case KindShareMismatch:
		return fmt.Sprintf("shares sum to %s, expected %s", e.Value, e.Limit)
	case KindMissingField:
		return fmt.Sprintf("%s is required", e.Field)
	case KindInvalidPassword:
		return fmt.Sprintf("password must be at most %s bytes", e.Limit)
	}
	return fmt.Sprintf("validation failed: %s", e.Kind)
}

// Is matches another *ValidationError with the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first ValidationError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}
