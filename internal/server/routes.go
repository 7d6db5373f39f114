package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.loadIdentity)

	r.Get("/health", s.healthHandler)

	// Server-rendered UI
	r.Get("/register", s.registerPage)
	r.Post("/register", s.registerSubmit)
	r.Get("/login", s.loginPage)
	r.Post("/login", s.loginSubmit)
	r.Get("/logout", s.logout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireWebUser)

		r.Get("/", s.indexPage)
		r.Get("/search", s.searchPage)
		r.Get("/dashboard", s.dashboardPage)
		r.Get("/add", s.addTodoPage)
		r.Post("/add", s.addTodoSubmit)
		r.Get("/edit/{id}", s.editTodoPage)
		r.Post("/edit/{id}", s.editTodoSubmit)
		r.Get("/complete/{id}", s.completeTodo)
		r.Get("/delete/{id}", s.deleteTodo)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.categoriesPage)
			r.Get("/add", s.addCategoryPage)
			r.Post("/add", s.addCategorySubmit)
			r.Get("/edit/{id}", s.editCategoryPage)
			r.Post("/edit/{id}", s.editCategorySubmit)
			r.Get("/delete/{id}", s.deleteCategory)
		})
	})

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Post("/login", s.apiLoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAPIUser)

			r.Route("/todos", func(r chi.Router) {
				r.Get("/", s.listTodosHandler)
				r.Post("/", s.createTodoHandler)
				r.Get("/{id}", s.getTodoHandler)
				r.Put("/{id}", s.updateTodoHandler)
				r.Delete("/{id}", s.deleteTodoHandler)
				r.Post("/{id}/toggle", s.toggleTodoHandler)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", s.listCategoriesHandler)
				r.Post("/", s.createCategoryHandler)
				r.Get("/{id}", s.getCategoryHandler)
				r.Put("/{id}", s.updateCategoryHandler)
				r.Delete("/{id}", s.deleteCategoryHandler)
			})

			r.Get("/stats", s.statsHandler)
			r.Get("/export/json", s.exportJSONHandler)
			r.Get("/export/csv", s.exportCSVHandler)
			r.Post("/logout", s.apiLogoutHandler)
			r.Delete("/account", s.deleteAccountHandler)
		})
	})

	r.NotFound(s.notFound)

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.db.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}
