package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSignedIn      EventType = "SIGNED_IN"
	EventSignedOut     EventType = "SIGNED_OUT"
	EventSignedOutAll  EventType = "SIGNED_OUT_ALL"
	EventSeasonCreated EventType = "SEASON_CREATED"
)

// AttendanceEvent describes a committed change to the ledger. Only the
// fields relevant to Type are set.
type AttendanceEvent struct {
	Type            EventType  `json:"type"`
	UserID          *uuid.UUID `json:"userId,omitempty"`
	Name            string     `json:"name,omitempty"`
	Count           int        `json:"count,omitempty"`
	SeasonStartDate string     `json:"seasonStartDate,omitempty"`
	At              time.Time  `json:"at"`
}
