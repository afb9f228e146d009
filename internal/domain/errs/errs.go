// Package errs defines the error kinds shared by the order pipeline.
//
// Every failure surfaced by the domain and storage packages matches exactly
// one of ErrInvalidInput or ErrPersistence via errors.Is, so callers can
// decide between correcting input and retrying a save.
package errs

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidInput marks values rejected at the point of construction or
	// mutation: blank names, non-positive prices, quantities below one,
	// negative tax rates.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersistence marks I/O or store failures while saving a receipt.
	ErrPersistence = errors.New("persistence failure")
)

// InputError describes a rejected field value.
type InputError struct {
	Field  string
	Reason string
}

// Invalid returns an *InputError for field.
func Invalid(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// PersistenceError wraps the underlying failure of a save operation.
type PersistenceError struct {
	Op  string
	Err error
}

// Persistence wraps err as a *PersistenceError. It returns nil for a nil err.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
