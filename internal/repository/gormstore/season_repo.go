package gormstore

import (
	"context"

	"github.com/dom/rfid-attendance/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type pastSeasonRepository struct {
	db *gorm.DB
}

func NewPastSeasonRepository(db *gorm.DB) *pastSeasonRepository {
	return &pastSeasonRepository{db: db}
}

func (r *pastSeasonRepository) CreateMany(ctx context.Context, rows []*domain.PastSeason) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

func (r *pastSeasonRepository) ExistsForDate(ctx context.Context, date datatypes.Date) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PastSeason{}).
		Where("season_start_date = ?", date).
		Count(&count).Error
	return count > 0, err
}

func (r *pastSeasonRepository) ListDates(ctx context.Context) ([]datatypes.Date, error) {
	var dates []datatypes.Date
	err := r.db.WithContext(ctx).
		Model(&domain.PastSeason{}).
		Distinct("season_start_date").
		Order("season_start_date DESC").
		Pluck("season_start_date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *pastSeasonRepository) GetByDate(ctx context.Context, date datatypes.Date) ([]*domain.PastSeason, error) {
	var rows []*domain.PastSeason
	err := r.db.WithContext(ctx).
		Where("season_start_date = ?", date).
		Order("hours DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
