package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a row of the ledger: a member, their card and the state of the
// current season.
type User struct {
	UserID     uuid.UUID  `json:"userId" gorm:"column:user_id;type:uuid;primaryKey"`
	RFIDKey    string     `json:"rfidKey" gorm:"column:rfid_key;uniqueIndex;not null"`
	Name       string     `json:"name" gorm:"not null"`
	Hours      float64    `json:"hours" gorm:"not null;default:0"`
	LoggedIn   bool       `json:"loggedIn" gorm:"not null;default:false;index"`
	LastLogin  *time.Time `json:"lastLogin"`
	LastLogout *time.Time `json:"lastLogout"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// UserLookup identifies a user either by card or by id. RFIDKey wins when
// both are set.
type UserLookup struct {
	RFIDKey string
	UserID  string
}

// NewUserLookup builds a lookup with both identifiers normalized.
func NewUserLookup(rfidKey, userID string) UserLookup {
	return UserLookup{RFIDKey: NormalizeRFIDKey(rfidKey), UserID: strings.TrimSpace(userID)}
}

// Normalized returns l with surrounding whitespace removed from both
// identifiers, matching how cards are stored.
func (l UserLookup) Normalized() UserLookup {
	return NewUserLookup(l.RFIDKey, l.UserID)
}

func (l UserLookup) IsEmpty() bool {
	n := l.Normalized()
	return n.RFIDKey == "" && n.UserID == ""
}

// NormalizeRFIDKey is applied to every card key before it is stored or
// looked up.
func NormalizeRFIDKey(key string) string {
	return strings.TrimSpace(key)
}

// HoursBetween converts a session into accrued hours. A session whose end
// precedes its start accrues nothing, which keeps Hours non-negative.
func HoursBetween(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Seconds() / 3600
}
