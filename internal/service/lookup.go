package service

import (
	"context"
	"errors"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// findUser resolves a lookup to a user, optionally locking the row. An
// unparsable user id cannot match anything and is reported as not found.
func findUser(ctx context.Context, users repository.UserRepository, lookup domain.UserLookup, lock bool) (*domain.User, error) {
	lookup = lookup.Normalized()
	if lookup.IsEmpty() {
		return nil, domain.ErrMissingIdentifier
	}

	var (
		user *domain.User
		err  error
	)
	if lookup.RFIDKey != "" {
		if lock {
			user, err = users.GetByRFIDKeyForUpdate(ctx, lookup.RFIDKey)
		} else {
			user, err = users.GetByRFIDKey(ctx, lookup.RFIDKey)
		}
	} else {
		id, parseErr := uuid.Parse(lookup.UserID)
		if parseErr != nil {
			return nil, domain.ErrUserNotFound
		}
		if lock {
			user, err = users.GetByIDForUpdate(ctx, id)
		} else {
			user, err = users.GetByID(ctx, id)
		}
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StoreError("find user", err)
	}
	return user, nil
}
