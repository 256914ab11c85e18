package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name      string
	rfidKey   string
	hours     float64
	loggedIn  bool
	lastLogin *time.Time
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		name:    fmt.Sprintf("member_%s", suffix),
		rfidKey: fmt.Sprintf("card_%s", suffix),
	}
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

func (b *UserBuilder) WithRFIDKey(key string) *UserBuilder {
	b.rfidKey = key
	return b
}

func (b *UserBuilder) WithHours(hours float64) *UserBuilder {
	b.hours = hours
	return b
}

// SignedInAt marks the user as inside an open session that started at t.
func (b *UserBuilder) SignedInAt(t time.Time) *UserBuilder {
	at := t.UTC()
	b.loggedIn = true
	b.lastLogin = &at
	return b
}

// Build creates the user in the database
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()

	user := &domain.User{
		Name:      b.name,
		RFIDKey:   b.rfidKey,
		Hours:     b.hours,
		LoggedIn:  b.loggedIn,
		LastLogin: b.lastLogin,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// RecordBuilder creates attendance records
type RecordBuilder struct {
	userID uuid.UUID
	start  time.Time
	end    time.Time
	notes  *string
}

func NewRecordBuilder(userID uuid.UUID) *RecordBuilder {
	end := time.Now().UTC().Truncate(time.Second)
	return &RecordBuilder{
		userID: userID,
		start:  end.Add(-time.Hour),
		end:    end,
	}
}

func (b *RecordBuilder) Between(start, end time.Time) *RecordBuilder {
	b.start = start.UTC()
	b.end = end.UTC()
	return b
}

func (b *RecordBuilder) WithNotes(notes string) *RecordBuilder {
	b.notes = &notes
	return b
}

func (b *RecordBuilder) Build(t *testing.T, db *gorm.DB) *domain.Record {
	t.Helper()

	record := &domain.Record{
		UserID:    b.userID,
		StartTime: b.start,
		EndTime:   b.end,
		Notes:     b.notes,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	return record
}

// NewRequest creates an API request carrying the device token and, when
// management is set, the staff password.
func NewRequest(t *testing.T, method, url string, body interface{}, management bool) *http.Request {
	t.Helper()

	bodyReader := bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Token", TestAPIToken)
	if management {
		req.Header.Set("X-Management-Password", TestManagementPassword)
	}

	return req
}

// Do sends req and fails the test on transport errors.
func Do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", req.Method, req.URL, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
