package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/caretrack/hms-backend/internal/gateway"
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
	log.WithService("gateway").Info("Starting API Gateway")

	service, err := gateway.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize API Gateway")
	}

	go func() {
		if err := service.Start(""); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down API Gateway")
	if err := service.Stop(); err != nil {
		log.WithError(err).Error("Failed to stop service gracefully")
	}

	log.Info("API Gateway stopped")
}
