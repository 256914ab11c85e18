package repository

import (
	"context"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByRFIDKey(ctx context.Context, rfidKey string) (*domain.User, error)
	// GetByIDForUpdate and GetByRFIDKeyForUpdate lock the row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByRFIDKeyForUpdate(ctx context.Context, rfidKey string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ListLoggedIn(ctx context.Context) ([]*domain.User, error)
	ListLoggedInForUpdate(ctx context.Context) ([]*domain.User, error)
	ListAllForUpdate(ctx context.Context) ([]*domain.User, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByRFIDKey(ctx context.Context, rfidKey string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	MarkSignedIn(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkSignedOut(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
	AddHours(ctx context.Context, id uuid.UUID, hours float64) error
	ResetHours(ctx context.Context, ids []uuid.UUID) error
}

type RecordRepository interface {
	Create(ctx context.Context, record *domain.Record) error
	CreateMany(ctx context.Context, records []*domain.Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error)
	List(ctx context.Context, filter domain.RecordFilter) ([]*domain.Record, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.RecordPatch) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type PastSeasonRepository interface {
	CreateMany(ctx context.Context, rows []*domain.PastSeason) error
	ExistsForDate(ctx context.Context, date datatypes.Date) (bool, error)
	ListDates(ctx context.Context) ([]datatypes.Date, error)
	GetByDate(ctx context.Context, date datatypes.Date) ([]*domain.PastSeason, error)
}

// Transactor runs fn inside a single store transaction. The repositories
// handed to fn are bound to that transaction; it commits when fn returns
// nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

type Repositories struct {
	User       UserRepository
	Record     RecordRepository
	PastSeason PastSeasonRepository
	Tx         Transactor
}
