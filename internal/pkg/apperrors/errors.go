package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the resolution workflow. Services return these (or
// wrapped variants) and the HTTP error middleware maps them to status codes.
var (
	ErrNotFound            = errors.New("resolution request not found")
	ErrConcurrencyConflict = errors.New("resolution was modified concurrently, refresh and retry")
)

// ValidationError is an illegal transition or bad input. Surfaced to the
// admin verbatim, never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TransitionError is an operation attempted against the wrong lifecycle
// state. Unlike plain validation it is a conflict with current state, so the
// HTTP layer maps it to 409.
type TransitionError struct {
	Operation string
	Current   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a request in status %s", e.Operation, e.Current)
}

func NewTransition(operation, current string) *TransitionError {
	return &TransitionError{Operation: operation, Current: current}
}

// CarrierError wraps failures from the logistics platform. Transient errors
// (timeouts, 5xx) may be retried with backoff; permanent errors (bad address,
// unsupported item) must be surfaced immediately.
type CarrierError struct {
	Transient bool
	Op        string
	Err       error
}

func (e *CarrierError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("carrier %s failed (%s): %v", e.Op, kind, e.Err)
}

func (e *CarrierError) Unwrap() error {
	return e.Err
}

// PaymentGatewayError wraps refund rail failures. Timeout means the refund
// outcome is unknown and must be reconciled, never assumed.
type PaymentGatewayError struct {
	Timeout bool
	Err     error
}

func (e *PaymentGatewayError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("payment gateway timeout, refund outcome unknown: %v", e.Err)
	}
	return fmt.Sprintf("payment gateway error: %v", e.Err)
}

func (e *PaymentGatewayError) Unwrap() error {
	return e.Err
}

// InventoryError is a stock adjustment failure (e.g. unknown sku). The
// transition is aborted before any courier/refund call is made.
type InventoryError struct {
	Sku string
	Err error
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("inventory adjustment failed for sku %s: %v", e.Sku, e.Err)
}

func (e *InventoryError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

func IsTransientCarrier(err error) bool {
	var ce *CarrierError
	return errors.As(err, &ce) && ce.Transient
}

func IsCarrier(err error) bool {
	var ce *CarrierError
	return errors.As(err, &ce)
}

func IsPaymentTimeout(err error) bool {
	var pe *PaymentGatewayError
	return errors.As(err, &pe) && pe.Timeout
}

func IsPaymentGateway(err error) bool {
	var pe *PaymentGatewayError
	return errors.As(err, &pe)
}

func IsInventory(err error) bool {
	var ie *InventoryError
	return errors.As(err, &ie)
}
