// Package errors provides centralized error definitions and error handling
// utilities for the rental shop. It defines the persistence and validation
// error taxonomy, typed errors with context wrapping, and classification
// helpers used by the command layer to decide how a failure is reported.
//
// Absent is deliberately distinct from corruption: a record file that does
// not exist is a valid outcome, a record file that exists but cannot be
// parsed is not.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors for the store and engine taxonomy.
var (
	// ErrAbsent indicates an expected missing record: the backing file
	// does not exist at all. Not an error condition for readers.
	ErrAbsent = errors.New("record absent")

	// ErrNotFound indicates a requested item is missing from a
	// collection that was read successfully.
	ErrNotFound = errors.New("not found")

	// ErrNotRented indicates a return was attempted for a plate with no
	// active rental record.
	ErrNotRented = errors.New("vehicle not rented")

	// ErrNoInventory indicates neither the shop nor any configured lot
	// could supply a vehicle of the requested category.
	ErrNoInventory = errors.New("no inventory available")

	// ErrInvalidCategory indicates a category outside SEDAN/SUV/VAN.
	ErrInvalidCategory = errors.New("invalid vehicle category")

	// ErrInvalidDistance indicates a negative distance on return.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrCorruptRecord indicates persisted data is present but violates
	// the expected layout.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrStorage indicates an I/O or lock-acquisition failure.
	ErrStorage = errors.New("storage failure")
)

// StoreError wraps a storage-level failure with the operation and file
// path where it occurred. It matches ErrStorage under errors.Is.
type StoreError struct {
	Op   string // e.g. "load", "save", "checkout"
	Path string // backing file path
	Err  error  // underlying cause
}

// NewStoreError creates a StoreError for the given operation and path.
func NewStoreError(op, path string, err error) *StoreError {
	return &StoreError{Op: op, Path: path, Err: err}
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: storage failure", e.Op, e.Path)
}

func (e *StoreError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStorage
}

// Is reports whether the target matches this error. StoreError matches
// ErrStorage in addition to its wrapped cause.
func (e *StoreError) Is(target error) bool {
	return target == ErrStorage
}

// CorruptError wraps a parse failure in a persisted record with the
// offending file and line. It matches ErrCorruptRecord under errors.Is.
type CorruptError struct {
	Path string
	Line string
	Err  error
}

// NewCorruptError creates a CorruptError for the given path and line.
func NewCorruptError(path, line string, err error) *CorruptError {
	return &CorruptError{Path: path, Line: line, Err: err}
}

func (e *CorruptError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("corrupt record in %s: %q: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("corrupt record in %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Is reports whether the target matches this error.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorruptRecord
}

// ValidationError describes rejected input before any file is touched.
type ValidationError struct {
	Field  string
	Value  string
	Reason error
}

// NewValidationError creates a ValidationError with the given field,
// offending value, and sentinel reason.
func NewValidationError(field, value string, reason error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// -----------------------------------------------------------------------------
// Classification helpers
// -----------------------------------------------------------------------------

// IsAbsent reports whether err represents an expected missing record.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrAbsent)
}

// IsNotFound reports whether err represents an item missing from a
// successfully-read collection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err stems from rejected caller input.
// Such failures are guaranteed to have left all files untouched.
func IsInvalidInput(err error) bool {
	if errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrInvalidDistance) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCorrupt reports whether err indicates an unparseable persisted record.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptRecord)
}

// IsStorage reports whether err indicates an I/O or locking failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
