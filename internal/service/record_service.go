package service

import (
	"context"
	"errors"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultRecordLimit = 100

type RecordService struct {
	repos *repository.Repositories
	log   *zap.Logger
}

func NewRecordService(repos *repository.Repositories, log *zap.Logger) *RecordService {
	return &RecordService{repos: repos, log: log}
}

func (s *RecordService) List(ctx context.Context, filter domain.RecordFilter) ([]*domain.Record, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultRecordLimit
	}

	records, err := s.repos.Record.List(ctx, filter)
	if err != nil {
		return nil, domain.StoreError("list records", err)
	}
	return records, nil
}

func (s *RecordService) Get(ctx context.Context, id string) (*domain.Record, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}
	return getRecord(ctx, s.repos.Record, recordID)
}

// Update applies a staff correction. The merged record must still end at or
// after its start. User hours are not recomputed.
func (s *RecordService) Update(ctx context.Context, id string, patch domain.RecordPatch) (*domain.Record, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrNoFieldsToUpdate
	}
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	var updated *domain.Record
	err = s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := getRecord(ctx, tx.Record, recordID)
		if err != nil {
			return err
		}

		merged := *current
		if patch.StartTime != nil {
			merged.StartTime = patch.StartTime.UTC()
			patch.StartTime = &merged.StartTime
		}
		if patch.EndTime != nil {
			merged.EndTime = patch.EndTime.UTC()
			patch.EndTime = &merged.EndTime
		}
		if patch.Notes != nil {
			merged.Notes = patch.Notes
		}
		if merged.EndTime.Before(merged.StartTime) {
			return domain.ErrInvalidTimeRange
		}

		if _, err := tx.Record.Update(ctx, recordID, patch); err != nil {
			return domain.StoreError("update record", err)
		}
		updated = &merged
		return nil
	})
	if err != nil {
		return nil, classify("update record", err)
	}

	s.log.Info("record updated", zap.String("record_id", id))
	return updated, nil
}

func (s *RecordService) Delete(ctx context.Context, id string) error {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrRecordNotFound
	}

	rows, err := s.repos.Record.Delete(ctx, recordID)
	if err != nil {
		return domain.StoreError("delete record", err)
	}
	if rows == 0 {
		return domain.ErrRecordNotFound
	}

	s.log.Info("record deleted", zap.String("record_id", id))
	return nil
}

func getRecord(ctx context.Context, records repository.RecordRepository, id uuid.UUID) (*domain.Record, error) {
	record, err := records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, domain.StoreError("get record", err)
	}
	return record, nil
}
