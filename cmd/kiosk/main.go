package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dom/rfid-attendance/internal/config"
	"github.com/dom/rfid-attendance/internal/kiosk"
	"github.com/dom/rfid-attendance/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadKiosk()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	display := kiosk.NewTextDisplay(os.Stdout, cfg.DisplayCols)
	station := kiosk.NewStation(kiosk.NewClient(cfg.APIURL, cfg.APIToken), display, log)

	display.Show("Attendance", "System Ready")
	log.Info("Kiosk starting", zap.String("api_url", cfg.APIURL))

	if err := station.WaitForServer(ctx); err != nil {
		log.Info("Kiosk stopped before backend was reachable")
		return
	}

	if err := station.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Reader loop failed", zap.Error(err))
	}

	display.Show("System", "Shutting Down")
}
