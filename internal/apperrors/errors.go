package apperrors

import (
	"errors"
	"fmt"
)

// Kind is a machine readable error category returned to callers
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindCeilingExceeded   Kind = "ceiling_exceeded"
	KindInvalidAmount     Kind = "invalid_amount"
	KindInvalidInput      Kind = "invalid_input"
	KindInternal          Kind = "internal_failure"
)

// Error is the application error: kind, human readable message and optional details
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any

	// Underlying cause, mostly for internal failures
	Err error

	// Kind sentinels match any error of the same kind
	sentinel bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.sentinel && t.Kind == e.Kind
}

func kind(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg, sentinel: true}
}

// Kind sentinels. Use with errors.Is
var (
	ErrNotFound          = kind(KindNotFound, "not found")
	ErrForbidden         = kind(KindForbidden, "forbidden")
	ErrConflict          = kind(KindConflict, "conflict")
	ErrInsufficientFunds = kind(KindInsufficientFunds, "insufficient funds")
	ErrCeilingExceeded   = kind(KindCeilingExceeded, "ceiling exceeded")
	ErrInvalidAmount     = kind(KindInvalidAmount, "invalid amount")
	ErrInvalidInput      = kind(KindInvalidInput, "invalid input")
	ErrInternal          = kind(KindInternal, "internal failure")
)

// Well known errors
var (
	ErrUserAlreadyExists  = &Error{Kind: KindConflict, Message: "user already exists"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrInvalidCredentials = &Error{Kind: KindNotFound, Message: "invalid email or password"}

	ErrCompanyNotFound  = &Error{Kind: KindNotFound, Message: "company not found"}
	ErrNotCompanyMember = &Error{Kind: KindNotFound, Message: "user is not a member of this company"}
	ErrAlreadyMember    = &Error{Kind: KindConflict, Message: "user is already a member of this company"}

	ErrListingNotFound    = &Error{Kind: KindNotFound, Message: "listing not found"}
	ErrListingUnavailable = &Error{Kind: KindNotFound, Message: "listing not found or not available"}

	ErrResponseNotFound  = &Error{Kind: KindNotFound, Message: "response not found"}
	ErrResponseDuplicate = &Error{Kind: KindConflict, Message: "you have already responded to this listing"}
	ErrResponseFinalized = &Error{Kind: KindConflict, Message: "cannot delete response that has been accepted or rejected"}
)

func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return New(KindInvalidInput, format, args...)
}

func InvalidAmount(amount int64) *Error {
	e := New(KindInvalidAmount, "amount must be a positive integer")
	e.Details = map[string]any{"amount": amount}
	return e
}

func InsufficientFunds(required, current int64) *Error {
	e := New(KindInsufficientFunds, "insufficient balance: required %d, current %d", required, current)
	e.Details = map[string]any{"required": required, "current": current}
	return e
}

func CeilingExceeded(ceiling, current, amount int64) *Error {
	e := New(KindCeilingExceeded, "balance cannot exceed maximum of %d", ceiling)
	e.Details = map[string]any{"ceiling": ceiling, "current": current, "amount": amount}
	return e
}

// Internal wraps storage or other unexpected failure
// Application errors are returned as is
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindInternal, Message: "internal failure", Err: err}
}

// From extracts application error from chain
// Anything unknown is reported as internal failure
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: KindInternal, Message: "internal failure", Err: err}
}
