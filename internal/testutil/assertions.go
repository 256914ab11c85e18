package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Envelope is the generic shape of an API response
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies an error envelope with expected status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var env Envelope
	AssertJSONResponse(t, resp, &env)
	assert.False(t, env.Success)
	assert.Equal(t, expectedMessage, env.Message, "error message mismatch")
}

// ReloadUser reads the current state of a user straight from the database
func ReloadUser(t *testing.T, db *gorm.DB, id uuid.UUID) *domain.User {
	t.Helper()

	var user domain.User
	require.NoError(t, db.First(&user, "user_id = ?", id).Error)
	return &user
}

// CountRecords returns the number of records stored for a user
func CountRecords(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&domain.Record{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

// AssertHours compares accrued hours with a tolerance for float rounding
func AssertHours(t *testing.T, expected, actual float64) {
	t.Helper()
	assert.InDelta(t, expected, actual, 1e-9, "unexpected hours")
}
