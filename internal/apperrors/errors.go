// Package apperrors defines the error kinds surfaced by the marketplace services
// and their mapping to HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindVerificationRequired
	KindNotFound
	KindInvalidOperation
	KindInvalidState
	KindInvalidTransition
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindVerificationRequired:
		return "verification_required"
	case KindNotFound:
		return "not_found"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a business error carrying its kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and client message to an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a ValidationFailed error with field details.
func Validation(message string, details interface{}) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// InvalidTransition reports a shipment status change the state machine refuses.
func InvalidTransition(from, to string) *Error {
	return New(KindInvalidTransition, fmt.Sprintf("Transition from %s to %s not allowed", from, to))
}

// Internal wraps an unexpected store or provider failure.
func Internal(err error) *Error {
	return Wrap(KindUnavailable, err, "internal server error")
}

// KindOf returns the kind of err, or KindUnavailable for errors that carry none.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnavailable
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code sent to clients.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidOperation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden, KindVerificationRequired:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Business rule errors
var (
	ErrVerificationRequired = New(KindVerificationRequired, "Profile verification required")

	ErrListingNotFound  = New(KindNotFound, "Listing not found")
	ErrOwnListing       = New(KindInvalidOperation, "Shipper cannot propose on own listing")
	ErrListingNotActive = New(KindInvalidOperation, "Listing is not active")
	ErrListingMatched   = New(KindInvalidState, "Listing can no longer be changed")
	ErrTripNotOwned     = New(KindInvalidOperation, "Trip not found or not yours")

	ErrTripNotFound = New(KindNotFound, "Trip not found")

	ErrProposalNotFound    = New(KindNotFound, "Proposal not found")
	ErrOnlyShipperAccept   = New(KindForbidden, "Only shipper can accept")
	ErrOnlyShipperReject   = New(KindForbidden, "Only shipper can reject")
	ErrProposalNotPending  = New(KindInvalidState, "Proposal is not pending")
	ErrShipmentExists      = New(KindConflict, "A shipment already exists for this listing")
	ErrShipmentNotFound    = New(KindNotFound, "Shipment not found")
	ErrOnlyDriverUpdate    = New(KindForbidden, "Only driver can update status")
	ErrStatusChanged       = New(KindInvalidState, "Shipment status changed concurrently")
	ErrVerificationMissing = New(KindNotFound, "Verification not found")
	ErrNotPendingReview    = New(KindInvalidState, "Verification is not pending review")
	ErrNotificationMissing = New(KindNotFound, "Notification not found")

	ErrForbidden    = New(KindForbidden, "Forbidden")
	ErrUnauthorized = New(KindUnauthorized, "Unauthorized")
)
