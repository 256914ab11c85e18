package service

import (
	"context"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SeasonService struct {
	repos  *repository.Repositories
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

func NewSeasonService(repos *repository.Repositories, events EventPublisher, log *zap.Logger) *SeasonService {
	return &SeasonService{
		repos:  repos,
		events: events,
		log:    log,
		now:    now,
	}
}

// ArchiveResult describes a completed archive.
type ArchiveResult struct {
	SeasonStartDate string
	Users           int
}

// CreateSeason freezes every user's hours under seasonStartDate and resets
// them to zero. Session state is left alone. All user rows stay locked for
// the whole transaction, which also serializes concurrent archives.
func (s *SeasonService) CreateSeason(ctx context.Context, seasonStartDate string) (*ArchiveResult, error) {
	date, err := domain.ParseSeasonDate(seasonStartDate)
	if err != nil {
		return nil, err
	}

	var archived int
	err = s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		users, err := tx.User.ListAllForUpdate(ctx)
		if err != nil {
			return domain.StoreError("lock users", err)
		}

		exists, err := tx.PastSeason.ExistsForDate(ctx, date)
		if err != nil {
			return domain.StoreError("check season", err)
		}
		if exists {
			return domain.ErrSeasonExists
		}
		if len(users) == 0 {
			return nil
		}

		rows := make([]*domain.PastSeason, len(users))
		ids := make([]uuid.UUID, len(users))
		for i, u := range users {
			rows[i] = &domain.PastSeason{
				UserID:          u.UserID,
				Name:            u.Name,
				Hours:           u.Hours,
				SeasonStartDate: date,
			}
			ids[i] = u.UserID
		}

		if err := tx.PastSeason.CreateMany(ctx, rows); err != nil {
			return domain.StoreError("insert snapshot", err)
		}
		if err := tx.User.ResetHours(ctx, ids); err != nil {
			return domain.StoreError("reset hours", err)
		}

		archived = len(users)
		return nil
	})
	if err != nil {
		return nil, classify("create season", err)
	}

	formatted := domain.FormatSeasonDate(date)
	s.log.Info("season archived",
		zap.String("season_start_date", formatted),
		zap.Int("users", archived),
	)
	if s.events != nil {
		s.events.Publish(domain.AttendanceEvent{
			Type:            domain.EventSeasonCreated,
			Count:           archived,
			SeasonStartDate: formatted,
			At:              s.now(),
		})
	}

	return &ArchiveResult{SeasonStartDate: formatted, Users: archived}, nil
}

// ListSeasons returns the archived season dates, newest first.
func (s *SeasonService) ListSeasons(ctx context.Context) ([]string, error) {
	dates, err := s.repos.PastSeason.ListDates(ctx)
	if err != nil {
		return nil, domain.StoreError("list seasons", err)
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = domain.FormatSeasonDate(d)
	}
	return out, nil
}

// GetSeason returns one archive batch ordered by hours, highest first. An
// unknown date yields an empty batch.
func (s *SeasonService) GetSeason(ctx context.Context, seasonStartDate string) ([]*domain.PastSeason, error) {
	date, err := domain.ParseSeasonDate(seasonStartDate)
	if err != nil {
		return nil, err
	}

	rows, err := s.repos.PastSeason.GetByDate(ctx, date)
	if err != nil {
		return nil, domain.StoreError("get season", err)
	}
	return rows, nil
}
