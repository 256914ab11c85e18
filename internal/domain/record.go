package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record is one completed attendance session. UserID is a plain reference:
// deleting the user leaves its records in place.
type Record struct {
	RecordID  uuid.UUID `json:"recordId" gorm:"column:record_id;type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	StartTime time.Time `json:"startTime" gorm:"not null;index"`
	EndTime   time.Time `json:"endTime" gorm:"not null"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.RecordID == uuid.Nil {
		r.RecordID = uuid.New()
	}
	return nil
}

// Duration is the length of the session, never negative.
func (r *Record) Duration() time.Duration {
	if r.EndTime.Before(r.StartTime) {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

type RecordFilter struct {
	UserID    *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// RecordPatch holds the staff-editable fields of a record. Nil means
// "leave unchanged".
type RecordPatch struct {
	StartTime *time.Time
	EndTime   *time.Time
	Notes     *string
}

func (p RecordPatch) IsEmpty() bool {
	return p.StartTime == nil && p.EndTime == nil && p.Notes == nil
}
