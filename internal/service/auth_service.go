package service

import (
	"github.com/dom/rfid-attendance/internal/access"
	"github.com/dom/rfid-attendance/internal/config"
	"go.uber.org/zap"
)

// AuthService answers staff login attempts against the configured
// management password.
type AuthService struct {
	cfg *config.Config
	log *zap.Logger
}

func NewAuthService(cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{cfg: cfg, log: log}
}

// Login reports whether password grants management access.
func (s *AuthService) Login(password string) access.Decision {
	decision := access.Check(password, s.cfg.ManagementPassword)
	if decision != access.Allowed {
		s.log.Warn("management login rejected", zap.Stringer("decision", decision))
	}
	return decision
}

// CheckDevice verifies a device token.
func (s *AuthService) CheckDevice(token string) access.Decision {
	return access.Check(token, s.cfg.APIToken)
}

// CheckManagement verifies a staff password presented on a gated request.
func (s *AuthService) CheckManagement(password string) access.Decision {
	return access.Check(password, s.cfg.ManagementPassword)
}
