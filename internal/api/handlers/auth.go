package handlers

import (
	"net/http"

	"github.com/dom/rfid-attendance/internal/access"
	"github.com/dom/rfid-attendance/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if h.authService.Login(req.Password) != access.Allowed {
		respondMessage(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	respondOK(w, envelope{
		"message":             "Authentication successful",
		"hasManagementAccess": true,
	})
}

// Verify sits behind the management gate, so reaching it is the answer.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	respondOK(w, envelope{"hasManagementAccess": true})
}
