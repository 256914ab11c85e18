package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dom/rfid-attendance/internal/access"
	"go.uber.org/zap"
)

const (
	APITokenHeader           = "X-API-Token"
	ManagementPasswordHeader = "X-Management-Password"
)

// Checker decides whether a presented credential grants access.
type Checker func(presented string) access.Decision

// APIToken admits requests carrying the device token in the X-API-Token
// header or the token query parameter.
func APIToken(check Checker, log *zap.Logger) func(http.Handler) http.Handler {
	return gate(check, log, "API token required", "Invalid API token", func(r *http.Request) string {
		if token := r.Header.Get(APITokenHeader); token != "" {
			return token
		}
		return r.URL.Query().Get("token")
	})
}

// Management admits requests carrying the staff password in the
// X-Management-Password header.
func Management(check Checker, log *zap.Logger) func(http.Handler) http.Handler {
	return gate(check, log, "Management password required", "Invalid management password", func(r *http.Request) string {
		return r.Header.Get(ManagementPasswordHeader)
	})
}

func gate(check Checker, log *zap.Logger, missingMsg, invalidMsg string, extract func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch check(extract(r)) {
			case access.Allowed:
				next.ServeHTTP(w, r)
			case access.Missing:
				reject(w, http.StatusUnauthorized, missingMsg)
			default:
				log.Warn(invalidMsg,
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				reject(w, http.StatusForbidden, invalidMsg)
			}
		})
	}
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
