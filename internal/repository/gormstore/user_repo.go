package gormstore

import (
	"context"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "user_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByRFIDKey(ctx context.Context, rfidKey string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "rfid_key = ?", rfidKey).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := forUpdate(r.db.WithContext(ctx)).First(&user, "user_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByRFIDKeyForUpdate(ctx context.Context, rfidKey string) (*domain.User, error) {
	var user domain.User
	err := forUpdate(r.db.WithContext(ctx)).First(&user, "rfid_key = ?", rfidKey).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ListLoggedIn(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.WithContext(ctx).
		Where("logged_in = ?", true).
		Order("last_login ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ListLoggedInForUpdate(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := forUpdate(r.db.WithContext(ctx)).
		Where("logged_in = ?", true).
		Order("user_id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ListAllForUpdate(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := forUpdate(r.db.WithContext(ctx)).
		Order("user_id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByRFIDKey(ctx context.Context, rfidKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("rfid_key = ?", rfidKey).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", id).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.User{}, "user_id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *userRepository) MarkSignedIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"logged_in":  true,
			"last_login": at,
		}).Error
}

// MarkSignedOut flips only the given users that are still logged in and
// reports how many rows changed.
func (r *userRepository) MarkSignedOut(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id IN ? AND logged_in = ?", ids, true).
		Updates(map[string]interface{}{
			"logged_in":   false,
			"last_logout": at,
		})
	return result.RowsAffected, result.Error
}

func (r *userRepository) AddHours(ctx context.Context, id uuid.UUID, hours float64) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", id).
		Update("hours", gorm.Expr("hours + ?", hours)).Error
}

func (r *userRepository) ResetHours(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id IN ?", ids).
		Update("hours", 0).Error
}
