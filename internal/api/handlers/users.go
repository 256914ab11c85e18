package handlers

import (
	"net/http"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	users *service.UserService
	log   *zap.Logger
}

func NewUserHandler(users *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

type createUserRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	RFIDKey string `json:"rfidKey" validate:"required"`
}

type updateUserRequest struct {
	Name  *string  `json:"name" validate:"omitempty,max=100"`
	Hours *float64 `json:"hours"`
}

func queryLookup(r *http.Request) domain.UserLookup {
	q := r.URL.Query()
	return domain.NewUserLookup(q.Get("rfidKey"), q.Get("userId"))
}

// List returns every user, or a single user when userId or rfidKey is given.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if lookup := queryLookup(r); !lookup.IsEmpty() {
		user, err := h.users.Get(r.Context(), lookup)
		if err != nil {
			respondError(w, r, h.log, err, "Failed to fetch users")
			return
		}
		respondOK(w, envelope{"data": user})
		return
	}

	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, r, h.log, err, "Failed to fetch users")
		return
	}
	respondOK(w, envelope{"data": users, "count": len(users)})
}

func (h *UserHandler) LoggedIn(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListLoggedIn(r.Context())
	if err != nil {
		respondError(w, r, h.log, err, "Failed to fetch logged-in users")
		return
	}
	respondOK(w, envelope{"data": users, "count": len(users)})
}

func (h *UserHandler) Exists(w http.ResponseWriter, r *http.Request) {
	lookup := queryLookup(r)
	if lookup.IsEmpty() {
		respondMessage(w, http.StatusBadRequest, "userId or rfidKey required")
		return
	}

	exists, err := h.users.Exists(r.Context(), lookup)
	if err != nil {
		respondError(w, r, h.log, err, "Failed to check user existence")
		return
	}
	respondOK(w, envelope{"exists": exists})
}

func (h *UserHandler) Name(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), domain.UserLookup{UserID: chi.URLParam(r, "id")})
	if err != nil {
		respondError(w, r, h.log, err, "Failed to fetch user name")
		return
	}
	respondOK(w, envelope{"name": user.Name})
}

func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), domain.UserLookup{UserID: chi.URLParam(r, "id")})
	if err != nil {
		respondError(w, r, h.log, err, "Failed to check user status")
		return
	}
	respondOK(w, envelope{"loggedIn": user.LoggedIn})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Create(r.Context(), service.CreateUserInput{
		Name:    req.Name,
		RFIDKey: req.RFIDKey,
	})
	if err != nil {
		respondError(w, r, h.log, err, "Failed to create user")
		return
	}

	respondCreated(w, envelope{
		"message": "User created successfully",
		"userId":  user.UserID.String(),
	})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateUserInput{
		Name:  req.Name,
		Hours: req.Hours,
	})
	if err != nil {
		respondError(w, r, h.log, err, "Failed to update user")
		return
	}

	respondOK(w, envelope{
		"message": "User updated successfully",
		"data":    user,
	})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err, "Failed to delete user")
		return
	}
	respondOK(w, envelope{"message": "User deleted successfully"})
}
