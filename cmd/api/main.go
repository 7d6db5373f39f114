package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tomlord1122/todo-tracker/internal/config"
	"github.com/Tomlord1122/todo-tracker/internal/database"
	"github.com/Tomlord1122/todo-tracker/internal/repository"
	"github.com/Tomlord1122/todo-tracker/internal/server"
	"github.com/Tomlord1122/todo-tracker/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is handling
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	if err := dbService.Close(); err != nil {
		log.Printf("Error closing database connection pool: %v", err)
	} else {
		log.Println("Database connection pool closed.")
	}

	log.Println("Server exiting")
	done <- true
}

func main() {
	// 1. Load configuration (.env, optional config file, environment)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Open the database and bring the schema up to date
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	log.Println("Running database auto-migration...")
	if err := database.Migrate(dbService.GetDB()); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}
	log.Println("Database auto-migration complete.")

	// 3. Wire repositories and services
	store := repository.NewStore(dbService.GetDB())
	services := server.Services{
		Todos:      service.NewTodoService(store, nil),
		Categories: service.NewCategoryService(store),
		Auth:       service.NewAuthService(store, cfg.SecretKey, cfg.SessionTTL, nil),
	}

	// 4. Build the HTTP server
	chiServer := server.NewServer(cfg, dbService, services)

	done := make(chan bool, 1)
	go gracefulShutdown(chiServer, dbService, done)

	log.Printf("Starting server on %s (database: %s)", chiServer.Addr, cfg.Database.Driver)
	err = chiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server ListenAndServe error: %v", err)
	}

	<-done
	log.Println("Graceful shutdown complete.")
}
