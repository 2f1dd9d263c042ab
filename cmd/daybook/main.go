package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rowanvale/daybook/internal/database"
	"github.com/rowanvale/daybook/internal/email"
	"github.com/rowanvale/daybook/internal/logging"
	"github.com/rowanvale/daybook/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("DAYBOOK_LOG_LEVEL"))

	port := os.Getenv("DAYBOOK_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DAYBOOK_DB_PATH")
	if dbPath == "" {
		dbPath = "daybook.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("POSTMARK_SERVER_TOKEN"),
		os.Getenv("POSTMARK_FROM_EMAIL"),
	)
	if !emailClient.Configured() {
		logger.Warn("email client not configured, verification codes will not be delivered")
	}

	srv := server.New(db, emailClient, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan struct{})
	go cleanupLoop(srv, logger.With("component", "cleanup"), stop)

	go func() {
		fmt.Printf("Daybook running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// cleanupLoop periodically expires sessions (and their panel state),
// verification codes and rate limiter entries.
func cleanupLoop(srv *server.Server, logger *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tokens, err := srv.SessionStore().DeleteExpired()
			if err != nil {
				logger.Error("delete expired sessions", "error", err)
			}
			for _, token := range tokens {
				srv.Panels().Drop(token)
			}
			if err := srv.MagicLinkStore().DeleteExpired(); err != nil {
				logger.Error("delete expired codes", "error", err)
			}
			srv.RateLimiter().Cleanup()
		case <-stop:
			return
		}
	}
}
