package gormstore

import (
	"context"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *recordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Create(ctx context.Context, record *domain.Record) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *recordRepository) CreateMany(ctx context.Context, records []*domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, 100).Error
}

func (r *recordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	var record domain.Record
	err := r.db.WithContext(ctx).First(&record, "record_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) List(ctx context.Context, filter domain.RecordFilter) ([]*domain.Record, error) {
	query := r.db.WithContext(ctx).Model(&domain.Record{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.StartDate != nil {
		query = query.Where("start_time >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("end_time <= ?", *filter.EndDate)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []*domain.Record
	err := query.Order("start_time DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *recordRepository) Update(ctx context.Context, id uuid.UUID, patch domain.RecordPatch) (int64, error) {
	fields := map[string]interface{}{}
	if patch.StartTime != nil {
		fields["start_time"] = *patch.StartTime
	}
	if patch.EndTime != nil {
		fields["end_time"] = *patch.EndTime
	}
	if patch.Notes != nil {
		fields["notes"] = *patch.Notes
	}
	if len(fields) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Record{}).
		Where("record_id = ?", id).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *recordRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Record{}, "record_id = ?", id)
	return result.RowsAffected, result.Error
}
