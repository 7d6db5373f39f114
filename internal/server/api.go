package server

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/Tomlord1122/todo-tracker/internal/repository"
	"github.com/Tomlord1122/todo-tracker/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string               `json:"token"`
	User  service.UserResponse `json:"user"`
}

type todoListResponse struct {
	Todos []service.TodoResponse `json:"todos"`
	Count int                    `json:"count"`
}

type categoryListResponse struct {
	Categories []service.CategoryResponse `json:"categories"`
	Count      int                        `json:"count"`
}

func (s *Server) apiLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Failed to log in")
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{Token: token, User: service.NewUserResponse(user)})
}

func (s *Server) apiLogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), identityFrom(r.Context()).SessionID); err != nil {
		respondWithServiceError(w, err, "Failed to log out")
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.DeleteAccount(r.Context(), currentUser(r).ID); err != nil {
		respondWithServiceError(w, err, "Failed to delete account")
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := repository.ParseTodoFilter(r.URL.Query())
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve todos")
		return
	}

	todos, err := s.todos.ListTodos(r.Context(), currentUser(r).ID, filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve todos")
		return
	}

	items := service.NewTodoResponses(todos, s.todos.Now())
	respondWithJSON(w, http.StatusOK, todoListResponse{Todos: items, Count: len(items)})
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return
	}

	todo, err := s.todos.GetTodo(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve todo")
		return
	}

	respondWithJSON(w, http.StatusOK, service.NewTodoResponse(todo, s.todos.Now()))
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := s.todos.CreateTodo(r.Context(), currentUser(r).ID, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create todo")
		return
	}

	respondWithJSON(w, http.StatusCreated, service.NewTodoResponse(todo, s.todos.Now()))
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return
	}

	var req service.UpdateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := s.todos.UpdateTodo(r.Context(), currentUser(r).ID, id, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update todo")
		return
	}

	respondWithJSON(w, http.StatusOK, service.NewTodoResponse(todo, s.todos.Now()))
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return
	}

	if err := s.todos.DeleteTodo(r.Context(), currentUser(r).ID, id); err != nil {
		respondWithServiceError(w, err, "Failed to delete todo")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted successfully"})
}

func (s *Server) toggleTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return
	}

	todo, err := s.todos.ToggleTodo(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to toggle todo")
		return
	}

	respondWithJSON(w, http.StatusOK, service.NewTodoResponse(todo, s.todos.Now()))
}

func (s *Server) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.ListCategories(r.Context(), currentUser(r).ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve categories")
		return
	}

	items := make([]service.CategoryResponse, 0, len(categories))
	for i := range categories {
		item := service.NewCategoryResponse(&categories[i].Category)
		count := categories[i].TodoCount
		item.TodoCount = &count
		items = append(items, item)
	}
	respondWithJSON(w, http.StatusOK, categoryListResponse{Categories: items, Count: len(items)})
}

func (s *Server) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID provided")
		return
	}

	category, err := s.categories.GetCategory(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve category")
		return
	}

	respondWithJSON(w, http.StatusOK, service.NewCategoryResponse(category))
}

func (s *Server) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := s.categories.CreateCategory(r.Context(), currentUser(r).ID, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create category")
		return
	}

	respondWithJSON(w, http.StatusCreated, service.NewCategoryResponse(category))
}

func (s *Server) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID provided")
		return
	}

	var req service.UpdateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := s.categories.UpdateCategory(r.Context(), currentUser(r).ID, id, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update category")
		return
	}

	respondWithJSON(w, http.StatusOK, service.NewCategoryResponse(category))
}

func (s *Server) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID provided")
		return
	}

	if err := s.categories.DeleteCategory(r.Context(), currentUser(r).ID, id); err != nil {
		respondWithServiceError(w, err, "Failed to delete category")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.todos.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to compute statistics")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) exportJSONHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	todos, err := s.todos.ListTodos(r.Context(), user.ID, repository.TodoFilter{})
	if err != nil {
		respondWithServiceError(w, err, "Failed to export todos")
		return
	}
	respondWithJSON(w, http.StatusOK, service.NewExport(user.Username, todos, s.todos.Now()))
}

func (s *Server) exportCSVHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	todos, err := s.todos.ListTodos(r.Context(), user.ID, repository.TodoFilter{})
	if err != nil {
		respondWithServiceError(w, err, "Failed to export todos")
		return
	}

	var buf bytes.Buffer
	if err := service.WriteCSV(&buf, todos); err != nil {
		log.Printf("Error writing CSV export: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to export todos")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.CSVFilename(user.Username)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
