package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	repos *repository.Repositories
	log   *zap.Logger
}

func NewUserService(repos *repository.Repositories, log *zap.Logger) *UserService {
	return &UserService{repos: repos, log: log}
}

type CreateUserInput struct {
	Name    string
	RFIDKey string
}

// UpdateUserInput carries the staff-editable fields. Nil leaves a field
// unchanged.
type UpdateUserInput struct {
	Name  *string
	Hours *float64
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	rfidKey := domain.NormalizeRFIDKey(input.RFIDKey)
	if name == "" || rfidKey == "" {
		return nil, domain.ErrMissingUserFields
	}

	exists, err := s.repos.User.ExistsByRFIDKey(ctx, rfidKey)
	if err != nil {
		return nil, domain.StoreError("check rfid key", err)
	}
	if exists {
		return nil, domain.ErrRFIDKeyExists
	}

	user := &domain.User{
		Name:    name,
		RFIDKey: rfidKey,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrRFIDKeyExists
		}
		return nil, domain.StoreError("create user", err)
	}

	s.log.Info("user created", zap.String("user_id", user.UserID.String()), zap.String("name", user.Name))
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	fields := make(map[string]interface{})
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrMissingUserFields
		}
		fields["name"] = name
	}
	if input.Hours != nil {
		if *input.Hours < 0 {
			return nil, domain.ErrNegativeHours
		}
		fields["hours"] = *input.Hours
	}
	if len(fields) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}

	rows, err := s.repos.User.Update(ctx, userID, fields)
	if err != nil {
		return nil, domain.StoreError("update user", err)
	}
	if rows == 0 {
		return nil, domain.ErrUserNotFound
	}

	return s.Get(ctx, domain.UserLookup{UserID: id})
}

// Delete removes the user. Records and archived seasons keep referring to
// the old id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	rows, err := s.repos.User.Delete(ctx, userID)
	if err != nil {
		return domain.StoreError("delete user", err)
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	s.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) Get(ctx context.Context, lookup domain.UserLookup) (*domain.User, error) {
	return findUser(ctx, s.repos.User, lookup, false)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repos.User.List(ctx)
	if err != nil {
		return nil, domain.StoreError("list users", err)
	}
	return users, nil
}

// ListLoggedIn returns the users with an open session, longest first.
func (s *UserService) ListLoggedIn(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repos.User.ListLoggedIn(ctx)
	if err != nil {
		return nil, domain.StoreError("list logged in users", err)
	}
	return users, nil
}

func (s *UserService) Exists(ctx context.Context, lookup domain.UserLookup) (bool, error) {
	lookup = lookup.Normalized()
	if lookup.IsEmpty() {
		return false, domain.ErrMissingIdentifier
	}

	var (
		exists bool
		err    error
	)
	if lookup.RFIDKey != "" {
		exists, err = s.repos.User.ExistsByRFIDKey(ctx, lookup.RFIDKey)
	} else {
		id, parseErr := uuid.Parse(lookup.UserID)
		if parseErr != nil {
			return false, nil
		}
		exists, err = s.repos.User.ExistsByID(ctx, id)
	}
	if err != nil {
		return false, domain.StoreError("check user", err)
	}
	return exists, nil
}
