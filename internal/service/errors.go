package service

import (
	"errors"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
)

var errorClasses = []error{
	domain.ErrValidation,
	domain.ErrNotFound,
	domain.ErrStateConflict,
	domain.ErrStoreFailure,
}

// classify passes typed errors through and turns anything else (begin or
// commit failures, driver errors) into a store failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, class := range errorClasses {
		if errors.Is(err, class) {
			return err
		}
	}
	return domain.StoreError(op, err)
}

// now returns the current instant at the precision PostgreSQL stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
