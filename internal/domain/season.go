package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const SeasonDateLayout = "2006-01-02"

// PastSeason is a frozen copy of one user's hours taken when a season was
// archived. All rows of one archive share SeasonStartDate.
type PastSeason struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID      `json:"userId" gorm:"type:uuid;not null"`
	Name            string         `json:"name" gorm:"not null"`
	Hours           float64        `json:"hours" gorm:"not null"`
	SeasonStartDate datatypes.Date `json:"seasonStartDate" gorm:"not null;index"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (p *PastSeason) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MarshalJSON renders SeasonStartDate as YYYY-MM-DD, the same form the
// season endpoints accept and list.
func (p PastSeason) MarshalJSON() ([]byte, error) {
	type pastSeason PastSeason
	return json.Marshal(struct {
		pastSeason
		SeasonStartDate string `json:"seasonStartDate"`
	}{
		pastSeason:      pastSeason(p),
		SeasonStartDate: FormatSeasonDate(p.SeasonStartDate),
	})
}

// ParseSeasonDate parses a YYYY-MM-DD calendar date into the UTC midnight
// key used for archive batches.
func ParseSeasonDate(s string) (datatypes.Date, error) {
	if s == "" {
		return datatypes.Date{}, ErrMissingSeasonDate
	}
	t, err := time.ParseInLocation(SeasonDateLayout, s, time.UTC)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("%w: %q", ErrInvalidSeasonDate, s)
	}
	return datatypes.Date(t), nil
}

// FormatSeasonDate renders a season key as YYYY-MM-DD.
func FormatSeasonDate(d datatypes.Date) string {
	return time.Time(d).UTC().Format(SeasonDateLayout)
}
