package server

import (
	"net/http"
	"time"

	"github.com/Tomlord1122/todo-tracker/internal/config"
	"github.com/Tomlord1122/todo-tracker/internal/database"
	"github.com/Tomlord1122/todo-tracker/internal/service"
)

// Services bundles what the handlers call into.
type Services struct {
	Todos      service.TodoService
	Categories service.CategoryService
	Auth       service.AuthService
}

type Server struct {
	cfg        *config.Config
	db         database.Service
	todos      service.TodoService
	categories service.CategoryService
	auth       service.AuthService
}

func NewServer(cfg *config.Config, dbService database.Service, svc Services) *http.Server {
	appServer := &Server{
		cfg:        cfg,
		db:         dbService,
		todos:      svc.Todos,
		categories: svc.Categories,
		auth:       svc.Auth,
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
