package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
	"github.com/Tomlord1122/todo-tracker/internal/repository"
	"github.com/Tomlord1122/todo-tracker/internal/service"
	"github.com/Tomlord1122/todo-tracker/internal/validation"
)

const msgNotFound = "The requested item was not found."

type indexView struct {
	Todos      []todoView
	Categories []domain.Category
	Priorities []domain.Priority
	Status     string
	Priority   string
	CategoryID string
	Search     string
	// Query is set on the search page.
	Query    string
	IsSearch bool
}

type todoForm struct {
	ID          uint
	Title       string
	Description string
	Priority    string
	DueDate     string
	CategoryID  string
	Categories  []domain.Category
	Priorities  []domain.Priority
}

type categoryForm struct {
	ID    uint
	Name  string
	Color string
}

type authForm struct {
	Username string
	Email    string
}

type dashboardView struct {
	*service.Dashboard
	Recent   []todoView
	Upcoming []todoView
}

// handleWebError turns a service error into a flash and a redirect.
func (s *Server) handleWebError(w http.ResponseWriter, r *http.Request, err error, redirectTo string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		setFlash(w, flashError, msgNotFound)
		redirectTo = "/"
	case errors.Is(err, service.ErrCategoryInUse):
		setFlash(w, flashError, "Cannot delete category that is used by todos.")
	default:
		log.Printf("Unexpected error on %s %s: %v", r.Method, r.URL.Path, err)
		setFlash(w, flashError, "An internal error occurred. Please try again.")
	}
	http.Redirect(w, r, redirectTo, http.StatusSeeOther)
}

// internalError is for pages that have nowhere sensible to redirect to.
func internalError(w http.ResponseWriter, what string, err error) {
	log.Printf("Error %s: %v", what, err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
		respondWithError(w, http.StatusNotFound, "Not found")
		return
	}
	setFlash(w, flashError, msgNotFound)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) indexPage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	values := r.URL.Query()
	view := indexView{
		Priorities: domain.Priorities,
		Status:     values.Get("status"),
		Priority:   values.Get("priority"),
		CategoryID: values.Get("category_id"),
		Search:     values.Get("search"),
	}

	var flash *flashMessage
	filter, err := repository.ParseTodoFilter(values)
	if err != nil {
		flash = &flashMessage{Kind: flashError, Message: err.Error()}
		filter = repository.TodoFilter{}
		view = indexView{Priorities: domain.Priorities}
	}
	filter.SearchDescription = true
	filter.Order = repository.OrderDashboard

	s.renderTodoList(w, r, user.ID, filter, view, flash)
}

func (s *Server) searchPage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	var flash *flashMessage
	if ok, msg := validation.Query(raw); !ok {
		flash = &flashMessage{Kind: flashError, Message: msg}
		raw = ""
	}
	q := validation.SanitizeQuery(raw)
	filter := repository.TodoFilter{
		Search:            q,
		SearchDescription: true,
		Order:             repository.OrderDashboard,
	}
	view := indexView{Priorities: domain.Priorities, Query: q, IsSearch: true}
	s.renderTodoList(w, r, currentUser(r).ID, filter, view, flash)
}

func (s *Server) renderTodoList(w http.ResponseWriter, r *http.Request, userID uint, filter repository.TodoFilter, view indexView, flash *flashMessage) {
	todos, err := s.todos.ListTodos(r.Context(), userID, filter)
	if err != nil {
		internalError(w, "listing todos", err)
		return
	}
	categories, err := s.categoryList(r, userID)
	if err != nil {
		internalError(w, "listing categories", err)
		return
	}
	view.Todos = newTodoViews(todos, s.todos.Now())
	view.Categories = categories

	title := "My Todos"
	if view.IsSearch {
		title = "Search"
	}
	s.render(w, r, http.StatusOK, "index.tmpl", page{Title: title, Flash: flash, Data: view})
}

func (s *Server) categoryList(r *http.Request, userID uint) ([]domain.Category, error) {
	withCounts, err := s.categories.ListCategories(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(withCounts))
	for _, c := range withCounts {
		out = append(out, c.Category)
	}
	return out, nil
}

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	dash, err := s.todos.Dashboard(r.Context(), currentUser(r).ID)
	if err != nil {
		internalError(w, "building dashboard", err)
		return
	}
	now := s.todos.Now()
	view := dashboardView{
		Dashboard: dash,
		Recent:    newTodoViews(dash.RecentlyCompleted, now),
		Upcoming:  newTodoViews(dash.Upcoming, now),
	}
	s.render(w, r, http.StatusOK, "dashboard.tmpl", page{Title: "Dashboard", Data: view})
}

func (s *Server) addTodoPage(w http.ResponseWriter, r *http.Request) {
	form := todoForm{Priority: domain.PriorityMedium.String()}
	s.renderTodoForm(w, r, http.StatusOK, form, nil)
}

func (s *Server) renderTodoForm(w http.ResponseWriter, r *http.Request, status int, form todoForm, errs map[string]string) {
	categories, err := s.categoryList(r, currentUser(r).ID)
	if err != nil {
		s.handleWebError(w, r, err, "/")
		return
	}
	form.Categories = categories
	form.Priorities = domain.Priorities

	title := "Add Todo"
	if form.ID != 0 {
		title = "Edit Todo"
	}
	s.render(w, r, status, "todo_form.tmpl", page{Title: title, Errors: errs, Data: form})
}

// readTodoForm reads the posted todo fields. A malformed category id is
// reported as a field error.
func readTodoForm(r *http.Request) (todoForm, *uint, map[string]string) {
	form := todoForm{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Priority:    r.PostFormValue("priority"),
		DueDate:     strings.TrimSpace(r.PostFormValue("due_date")),
		CategoryID:  strings.TrimSpace(r.PostFormValue("category_id")),
	}
	if form.CategoryID == "" || form.CategoryID == "0" {
		return form, nil, nil
	}
	id, err := strconv.ParseUint(form.CategoryID, 10, 64)
	if err != nil {
		return form, nil, map[string]string{"category_id": "Invalid category"}
	}
	cid := uint(id)
	return form, &cid, nil
}

func (s *Server) addTodoSubmit(w http.ResponseWriter, r *http.Request) {
	form, categoryID, errs := readTodoForm(r)
	if errs != nil {
		s.renderTodoForm(w, r, http.StatusBadRequest, form, errs)
		return
	}

	req := service.CreateTodoRequest{
		Title:      &form.Title,
		Priority:   &form.Priority,
		CategoryID: categoryID,
	}
	if form.Description != "" {
		req.Description = &form.Description
	}
	if form.DueDate != "" {
		req.DueDate = &form.DueDate
	}

	_, err := s.todos.CreateTodo(r.Context(), currentUser(r).ID, req)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		s.renderTodoForm(w, r, http.StatusBadRequest, form, verr.Fields)
		return
	}
	if err != nil {
		s.handleWebError(w, r, err, "/")
		return
	}

	setFlash(w, flashSuccess, "Todo added successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) editTodoPage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	todo, err := s.todos.GetTodo(r.Context(), currentUser(r).ID, id)
	if err != nil {
		s.handleWebError(w, r, err, "/")
		return
	}

	form := todoForm{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.DescriptionText(),
		Priority:    todo.Priority.String(),
	}
	if todo.DueDate != nil {
		form.DueDate = todo.DueDate.UTC().Format(inputTimeLayout)
	}
	if todo.CategoryID != nil {
		form.CategoryID = strconv.FormatUint(uint64(*todo.CategoryID), 10)
	}
	s.renderTodoForm(w, r, http.StatusOK, form, nil)
}

func (s *Server) editTodoSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	form, categoryID, errs := readTodoForm(r)
	form.ID = id
	if errs != nil {
		s.renderTodoForm(w, r, http.StatusBadRequest, form, errs)
		return
	}

	req := service.UpdateTodoRequest{
		Title:       service.Some(form.Title),
		Description: service.Null[string](),
		Priority:    service.Some(form.Priority),
		DueDate:     service.Null[string](),
		CategoryID:  service.Null[uint](),
	}
	if form.Description != "" {
		req.Description = service.Some(form.Description)
	}
	if form.DueDate != "" {
		req.DueDate = service.Some(form.DueDate)
	}
	if categoryID != nil {
		req.CategoryID = service.Some(*categoryID)
	}

	_, err := s.todos.UpdateTodo(r.Context(), currentUser(r).ID, id, req)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		s.renderTodoForm(w, r, http.StatusBadRequest, form, verr.Fields)
		return
	}
	if err != nil {
		s.handleWebError(w, r, err, "/")
		return
	}

	setFlash(w, flashSuccess, "Todo updated successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) completeTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	todo, err := s.todos.ToggleTodo(r.Context(), currentUser(r).ID, id)
	if err != nil {
		s.handleWebError(w, r, err, "/")
		return
	}

	status := "reopened"
	if todo.IsCompleted {
		status = "completed"
	}
	setFlash(w, flashSuccess, "Todo "+status+" successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := s.todos.DeleteTodo(r.Context(), currentUser(r).ID, id); err != nil {
		s.handleWebError(w, r, err, "/")
		return
	}
	setFlash(w, flashSuccess, "Todo deleted successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) categoriesPage(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.ListCategories(r.Context(), currentUser(r).ID)
	if err != nil {
		internalError(w, "listing categories", err)
		return
	}
	s.render(w, r, http.StatusOK, "categories.tmpl", page{Title: "Categories", Data: categories})
}

func (s *Server) addCategoryPage(w http.ResponseWriter, r *http.Request) {
	form := categoryForm{Color: domain.DefaultCategoryColor}
	s.render(w, r, http.StatusOK, "category_form.tmpl", page{Title: "Add Category", Data: form})
}

func readCategoryForm(r *http.Request) (categoryForm, *string, *string) {
	form := categoryForm{
		Name:  r.PostFormValue("name"),
		Color: strings.TrimSpace(r.PostFormValue("color")),
	}
	var color *string
	if form.Color != "" {
		color = &form.Color
	}
	return form, &form.Name, color
}

func (s *Server) addCategorySubmit(w http.ResponseWriter, r *http.Request) {
	form, name, color := readCategoryForm(r)
	_, err := s.categories.CreateCategory(r.Context(), currentUser(r).ID, service.CreateCategoryRequest{Name: name, Color: color})
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		s.render(w, r, http.StatusBadRequest, "category_form.tmpl", page{Title: "Add Category", Errors: verr.Fields, Data: form})
		return
	}
	if err != nil {
		s.handleWebError(w, r, err, "/categories")
		return
	}
	setFlash(w, flashSuccess, "Category created successfully!")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) editCategoryPage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	category, err := s.categories.GetCategory(r.Context(), currentUser(r).ID, id)
	if err != nil {
		s.handleWebError(w, r, err, "/categories")
		return
	}
	form := categoryForm{ID: category.ID, Name: category.Name, Color: category.Color}
	s.render(w, r, http.StatusOK, "category_form.tmpl", page{Title: "Edit Category", Data: form})
}

func (s *Server) editCategorySubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	form, name, color := readCategoryForm(r)
	form.ID = id
	if color == nil {
		empty := ""
		color = &empty
	}
	_, err := s.categories.UpdateCategory(r.Context(), currentUser(r).ID, id, service.UpdateCategoryRequest{Name: name, Color: color})
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		s.render(w, r, http.StatusBadRequest, "category_form.tmpl", page{Title: "Edit Category", Errors: verr.Fields, Data: form})
		return
	}
	if err != nil {
		s.handleWebError(w, r, err, "/categories")
		return
	}
	setFlash(w, flashSuccess, "Category updated successfully!")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := s.categories.DeleteCategory(r.Context(), currentUser(r).ID, id); err != nil {
		s.handleWebError(w, r, err, "/categories")
		return
	}
	setFlash(w, flashSuccess, "Category deleted successfully!")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	if identityFrom(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "register.tmpl", page{Title: "Register", Data: authForm{}})
}

func (s *Server) registerSubmit(w http.ResponseWriter, r *http.Request) {
	req := service.RegisterRequest{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	_, err := s.auth.Register(r.Context(), req)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		form := authForm{Username: req.Username, Email: req.Email}
		s.render(w, r, http.StatusBadRequest, "register.tmpl", page{Title: "Register", Errors: verr.Fields, Data: form})
		return
	}
	if err != nil {
		s.handleWebError(w, r, err, "/register")
		return
	}
	setFlash(w, flashSuccess, "Registration successful! Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if identityFrom(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.tmpl", page{Title: "Login", Data: authForm{}})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	token, user, err := s.auth.Login(r.Context(), username, r.PostFormValue("password"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		flash := &flashMessage{Kind: flashError, Message: "Invalid username or password"}
		s.render(w, r, http.StatusUnauthorized, "login.tmpl", page{Title: "Login", Flash: flash, Data: authForm{Username: username}})
		return
	}
	if err != nil {
		s.handleWebError(w, r, err, "/login")
		return
	}

	s.setSessionCookie(w, token)
	setFlash(w, flashSuccess, "Welcome back, "+user.Username+"!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if id := identityFrom(r.Context()); id != nil {
		if err := s.auth.Logout(r.Context(), id.SessionID); err != nil {
			log.Printf("Error logging out: %v", err)
		}
	}
	s.clearSessionCookie(w)
	setFlash(w, flashInfo, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
