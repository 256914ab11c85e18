package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// envelope is the body of every API response. success is always present.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, body envelope) {
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

func respondCreated(w http.ResponseWriter, body envelope) {
	body["success"] = true
	writeJSON(w, http.StatusCreated, body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{
		"success": status < http.StatusBadRequest,
		"message": message,
	})
}

var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{domain.ErrAlreadySignedIn, http.StatusConflict, "User is already logged in"},
	{domain.ErrNotSignedIn, http.StatusBadRequest, "User is not logged in"},
	{domain.ErrSeasonExists, http.StatusConflict, "Season already exists"},
	{domain.ErrRFIDKeyExists, http.StatusConflict, "RFID key already exists"},
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{domain.ErrRecordNotFound, http.StatusNotFound, "Record not found"},
}

// respondError maps a service error onto a status and message. Store
// failures are logged, reported to Sentry and answered with failureMessage
// only, so driver details never reach the client.
func respondError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, failureMessage string) {
	for _, e := range errorResponses {
		if errors.Is(err, e.err) {
			respondMessage(w, e.status, e.message)
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		respondMessage(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": "))
	case errors.Is(err, domain.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrStateConflict):
		respondMessage(w, http.StatusConflict, strings.TrimPrefix(err.Error(), domain.ErrStateConflict.Error()+": "))
	default:
		log.Error(failureMessage,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
		respondMessage(w, http.StatusInternalServerError, failureMessage)
	}
}

// decodeJSON reads a request body into dst and validates it. On false the
// error response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	}
	return fe.Field() + " is invalid"
}
