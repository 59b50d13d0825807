package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artbench/adapters/api"
	"artbench/internal"
	"artbench/internal/config"
	"artbench/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Shutdown(context.Background())

	// The compute endpoints work without a source; batch analysis needs one.
	var runner api.BatchRunner
	if cfg.Database.URL != "" || cfg.Files.InputFile != "" {
		if err := c.Init(ctx); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
		runner = c
	} else {
		logger.Warn("neither DATABASE_URL nor INPUT_FILE is set; batch analysis is disabled")
	}

	handler := api.NewHandler(runner, c.Artists, c.TestOptions(), logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed: %v", err)
	}
}
