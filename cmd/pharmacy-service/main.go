package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/caretrack/hms-backend/internal/pharmacy"
	"github.com/caretrack/hms-backend/pkg/config"
	"github.com/caretrack/hms-backend/pkg/logger"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.WithService("pharmacy").Info("Starting Pharmacy Service")

	service := pharmacy.New(cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := service.Start(addr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Pharmacy Service")
	if err := service.Stop(); err != nil {
		log.WithError(err).Error("Failed to stop service gracefully")
	}

	log.Info("Pharmacy Service stopped")
}
