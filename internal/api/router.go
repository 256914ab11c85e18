package api

import (
	"context"
	"net/http"

	"github.com/dom/rfid-attendance/internal/api/handlers"
	"github.com/dom/rfid-attendance/internal/api/middleware"
	"github.com/dom/rfid-attendance/internal/config"
	"github.com/dom/rfid-attendance/internal/live"
	"github.com/dom/rfid-attendance/internal/service"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(services *service.Services, hub *live.Hub, cfg *config.Config, ping func(ctx context.Context) error, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	healthHandler := handlers.NewHealthHandler(ping, log)
	authHandler := handlers.NewAuthHandler(services.Auth)
	attendanceHandler := handlers.NewAttendanceHandler(services.Attendance, log)
	userHandler := handlers.NewUserHandler(services.User, log)
	seasonHandler := handlers.NewSeasonHandler(services.Season, log)
	recordHandler := handlers.NewRecordHandler(services.Record, log)
	liveHandler := handlers.NewLiveHandler(hub, log)

	apiToken := middleware.APIToken(services.Auth.CheckDevice, log)
	management := middleware.Management(services.Auth.CheckManagement, log)
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})

	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		// Live feed stays outside the Sentry wrapper so the connection can
		// be hijacked by the upgrader.
		r.With(apiToken).Get("/live", liveHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(sentryHandler.Handle)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authHandler.Login)
				r.With(management).Get("/verify", authHandler.Verify)
			})

			r.Group(func(r chi.Router) {
				r.Use(apiToken)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", userHandler.List)
					r.Get("/logged-in", userHandler.LoggedIn)
					r.Get("/exists", userHandler.Exists)
					r.Get("/{id}/name", userHandler.Name)
					r.Get("/{id}/status", userHandler.Status)

					r.Group(func(r chi.Router) {
						r.Use(management)
						r.Post("/", userHandler.Create)
						r.Put("/{id}", userHandler.Update)
						r.Delete("/{id}", userHandler.Delete)
					})
				})

				r.Route("/attendance", func(r chi.Router) {
					r.Post("/sign-in", attendanceHandler.SignIn)
					r.Post("/sign-out", attendanceHandler.SignOut)
					r.With(management).Post("/sign-out-all", attendanceHandler.SignOutAll)
				})

				r.Route("/seasons", func(r chi.Router) {
					r.Get("/", seasonHandler.List)
					r.Get("/{date}", seasonHandler.Get)
					r.With(management).Post("/", seasonHandler.Create)
				})

				r.Route("/records", func(r chi.Router) {
					r.Use(management)
					r.Get("/", recordHandler.List)
					r.Get("/{id}", recordHandler.Get)
					r.Put("/{id}", recordHandler.Update)
					r.Delete("/{id}", recordHandler.Delete)
				})
			})
		})
	})

	return r
}
