// Package domain contains the core business entities and interfaces for the
// booking service.
package domain

import "errors"

// Domain errors represent business rule violations.
// These are used to communicate specific error conditions from the domain layer.
var (
	// ErrClassNotFound is returned when a class does not exist.
	ErrClassNotFound = errors.New("class not found")

	// ErrClassNotOpen is returned when enrolling in a class that is not OPEN.
	ErrClassNotOpen = errors.New("class is not open for enrollment")

	// ErrClassFull is returned when the class has no confirmed seats left.
	ErrClassFull = errors.New("class is full")

	// ErrAlreadyEnrolled is returned when the user already holds a confirmed
	// enrollment for the class.
	ErrAlreadyEnrolled = errors.New("already enrolled in this class")

	// ErrEnrollmentNotFound is returned when an enrollment does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrPaymentNotFound is returned when an enrollment has no payment, or
	// when no payment matches a provider charge id.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrChargeNotFound is returned by the gateway when the provider does not
	// know the charge id.
	ErrChargeNotFound = errors.New("charge not found at provider")

	// ErrNotOwner is returned when acting on another user's enrollment. It is
	// applied uniformly so callers learn nothing about the target resource.
	ErrNotOwner = errors.New("enrollment does not belong to caller")

	// ErrPaymentGatewayError is returned when communicating with Mercado Pago
	// fails. No local state is mutated when this happens.
	ErrPaymentGatewayError = errors.New("payment gateway error")

	// ErrPaymentNotRefundable is returned when refunding a payment that was
	// never paid.
	ErrPaymentNotRefundable = errors.New("payment is not refundable")

	// ErrInvalidInput is returned for malformed or out-of-range request data.
	ErrInvalidInput = errors.New("invalid input")
)

// BookingError wraps a domain error with additional context.
type BookingError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *BookingError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with BookingError.
func (e *BookingError) Unwrap() error {
	return e.Err
}

// NewBookingError creates a new BookingError with the given error and message.
func NewBookingError(err error, message, code string) *BookingError {
	return &BookingError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
