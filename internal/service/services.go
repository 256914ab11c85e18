package service

import (
	"github.com/dom/rfid-attendance/internal/config"
	"github.com/dom/rfid-attendance/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Auth       *AuthService
	Attendance *AttendanceService
	Season     *SeasonService
	User       *UserService
	Record     *RecordService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, events EventPublisher, log *zap.Logger) *Services {
	return &Services{
		Auth:       NewAuthService(cfg, log),
		Attendance: NewAttendanceService(repos, events, log),
		Season:     NewSeasonService(repos, events, log),
		User:       NewUserService(repos, log),
		Record:     NewRecordService(repos, log),
	}
}
