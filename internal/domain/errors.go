package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the services wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
	ErrStoreFailure  = errors.New("store failure")
)

// Validation errors
var (
	ErrMissingIdentifier = fmt.Errorf("%w: rfidKey or userId required", ErrValidation)
	ErrMissingUserFields = fmt.Errorf("%w: name and RFID key are required", ErrValidation)
	ErrNoFieldsToUpdate  = fmt.Errorf("%w: no fields to update", ErrValidation)
	ErrNegativeHours     = fmt.Errorf("%w: hours must be non-negative", ErrValidation)
	ErrMissingSeasonDate = fmt.Errorf("%w: seasonStartDate required (format: YYYY-MM-DD)", ErrValidation)
	ErrInvalidSeasonDate = fmt.Errorf("%w: seasonStartDate must be formatted YYYY-MM-DD", ErrValidation)
	ErrInvalidTimeRange  = fmt.Errorf("%w: endTime must not be before startTime", ErrValidation)
)

// Lookup errors
var (
	ErrUserNotFound   = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrRecordNotFound = fmt.Errorf("%w: record not found", ErrNotFound)
)

// Conflicts with the current state of the ledger
var (
	ErrAlreadySignedIn = fmt.Errorf("%w: user is already logged in", ErrStateConflict)
	ErrNotSignedIn     = fmt.Errorf("%w: user is not logged in", ErrStateConflict)
	ErrSeasonExists    = fmt.Errorf("%w: season already exists", ErrStateConflict)
	ErrRFIDKeyExists   = fmt.Errorf("%w: RFID key already exists", ErrStateConflict)
)

// StoreError wraps a persistence failure so it matches ErrStoreFailure while
// keeping the driver error for logs.
func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}
