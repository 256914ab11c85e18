package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/rfid-attendance/internal/api"
	"github.com/dom/rfid-attendance/internal/config"
	"github.com/dom/rfid-attendance/internal/live"
	applogger "github.com/dom/rfid-attendance/internal/logger"
	"github.com/dom/rfid-attendance/internal/repository/gormstore"
	"github.com/dom/rfid-attendance/internal/service"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := applogger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.Fatal("failed to initialize sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	gormLevel := gormlogger.Warn
	if cfg.IsProduction() {
		gormLevel = gormlogger.Error
	}

	// Initialize database
	db, err := gormstore.NewConnection(cfg.DatabaseType, cfg.DatabaseURL, gormLevel)
	if err != nil {
		log.Fatal("failed to connect to database", zap.String("type", cfg.DatabaseType), zap.Error(err))
	}

	repos := gormstore.NewRepositories(db)

	// Live feed of attendance changes
	hub := live.NewHub(log)
	go hub.Run()

	services := service.NewServices(repos, cfg, hub, log)

	ping := func(ctx context.Context) error {
		return gormstore.Ping(ctx, db)
	}
	router := api.NewRouter(services, hub, cfg, ping, log)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("port", cfg.Port), zap.String("database", cfg.DatabaseType))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	hub.Stop()

	log.Info("Server stopped")
}
