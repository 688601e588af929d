// Package errors provides custom error types for product-related operations.
package errors

import (
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

// User-facing messages of the product store.
const (
	MsgFetchFailed  = "Failed to fetch products"
	MsgDeleteFailed = "Failed to delete product"
)

// TransportError describes a failed exchange with the products backend.
// Status is the HTTP status code of the response, or 0 when no response was received.
// Message is the backend-supplied message, empty when the body carried none.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("products backend unreachable: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("products backend responded %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("products backend responded %d", e.Status)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports a 404 answer as ErrProductNotFound.
func (e *TransportError) Is(target error) bool {
	return target == ErrProductNotFound && e.Status == 404
}

// ValidationError is a rejected form field. Message is shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError is the error recorded by the product store after a failed operation.
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
