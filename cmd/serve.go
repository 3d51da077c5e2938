package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unishop/internal/app"
	"unishop/internal/events"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", ":8080", "listen address")
	_ = v.BindPFlag("APP_PORT", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Start Order Event Consumer ---
	waitConsumer, err := events.StartConsumer(ctx, cfg, a.Publisher, events.LogEvent)
	if err != nil {
		log.Printf("Failed to start order event consumer: %v", err)
		waitConsumer = func() {}
	}

	// --- Start HTTP Server ---
	listenErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		listenErr <- a.Listen(cfg.AppPort)
	}()

	// Wait for interrupt signal to gracefully shut down the server
	select {
	case err := <-listenErr:
		stop()
		shutdownErr := a.Shutdown(context.Background())
		waitConsumer()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return shutdownErr
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	waitConsumer()

	log.Println("Server gracefully stopped")
	return nil
}
