// Package access implements the two shared-secret checks that gate the API:
// the device token and the staff password.
package access

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Decision int

const (
	// Missing means no credential was presented.
	Missing Decision = iota
	// Invalid means a credential was presented and did not match.
	Invalid
	Allowed
)

func (d Decision) String() string {
	switch d {
	case Missing:
		return "missing"
	case Invalid:
		return "invalid"
	case Allowed:
		return "allowed"
	}
	return "unknown"
}

// Check compares a presented credential against the configured one. A
// configured value that looks like a bcrypt hash is verified with bcrypt.
// An empty configured value never allows access.
func Check(presented, configured string) Decision {
	if presented == "" {
		return Missing
	}
	if configured == "" {
		return Invalid
	}

	if IsBcryptHash(configured) {
		if bcrypt.CompareHashAndPassword([]byte(configured), []byte(presented)) == nil {
			return Allowed
		}
		return Invalid
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1 {
		return Allowed
	}
	return Invalid
}

func IsBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
