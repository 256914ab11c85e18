package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/service"
	"go.uber.org/zap"
)

type AttendanceHandler struct {
	attendance *service.AttendanceService
	log        *zap.Logger
}

func NewAttendanceHandler(attendance *service.AttendanceService, log *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, log: log}
}

type identifierRequest struct {
	RFIDKey string `json:"rfidKey"`
	UserID  string `json:"userId"`
}

func (req identifierRequest) lookup() domain.UserLookup {
	return domain.NewUserLookup(req.RFIDKey, req.UserID)
}

type attendanceUser struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	LoggedIn bool   `json:"loggedIn"`
}

func (h *AttendanceHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req identifierRequest
	if !decodeIdentifier(w, r, &req) {
		return
	}

	user, err := h.attendance.SignIn(r.Context(), req.lookup())
	if err != nil {
		respondError(w, r, h.log, err, "Failed to sign in user")
		return
	}

	respondOK(w, envelope{
		"message": "User signed in successfully",
		"user": attendanceUser{
			UserID:   user.UserID.String(),
			Name:     user.Name,
			LoggedIn: true,
		},
	})
}

func (h *AttendanceHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req identifierRequest
	if !decodeIdentifier(w, r, &req) {
		return
	}

	user, _, err := h.attendance.SignOut(r.Context(), req.lookup())
	if err != nil {
		respondError(w, r, h.log, err, "Failed to sign out user")
		return
	}

	respondOK(w, envelope{
		"message": "User signed out successfully",
		"user": attendanceUser{
			UserID:   user.UserID.String(),
			Name:     user.Name,
			LoggedIn: false,
		},
	})
}

func (h *AttendanceHandler) SignOutAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.attendance.SignOutAll(r.Context())
	if err != nil {
		respondError(w, r, h.log, err, "Failed to sign out all users")
		return
	}

	message := "All users signed out successfully"
	if count == 0 {
		message = "No users to sign out"
	}
	respondOK(w, envelope{
		"message": message,
		"count":   count,
	})
}

// decodeIdentifier accepts an empty body, which then fails the identifier
// check in the service with its own message.
func decodeIdentifier(w http.ResponseWriter, r *http.Request, req *identifierRequest) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
