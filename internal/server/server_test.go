package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-tracker/internal/config"
	"github.com/Tomlord1122/todo-tracker/internal/database"
	"github.com/Tomlord1122/todo-tracker/internal/repository"
	"github.com/Tomlord1122/todo-tracker/internal/service"
)

type testApp struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Default()
	cfg.SecretKey = "test-secret"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "server.db")
	cfg.Database.LogLevel = "silent"

	dbService, err := database.New(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbService.Close() })
	require.NoError(t, database.Migrate(dbService.GetDB()))

	store := repository.NewStore(dbService.GetDB())
	httpServer := NewServer(cfg, dbService, Services{
		Todos:      service.NewTodoService(store, nil),
		Categories: service.NewCategoryService(store),
		Auth:       service.NewAuthService(store, cfg.SecretKey, cfg.SessionTTL, nil),
	})

	ts := httptest.NewServer(httpServer.Handler)
	t.Cleanup(ts.Close)
	return &testApp{t: t, srv: ts}
}

// apiClient talks to /api with a bearer token.
type apiClient struct {
	app   *testApp
	token string
}

func (a *testApp) signup(name string) *apiClient {
	a.t.Helper()
	c := a.browser()
	resp := c.postForm("/register", url.Values{
		"username":         {name},
		"email":            {name + "@x.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)

	api := &apiClient{app: a}
	var login loginResponse
	status := api.do(http.MethodPost, "/api/login", map[string]string{"username": name, "password": "secret1"}, &login)
	require.Equal(a.t, http.StatusOK, status)
	require.NotEmpty(a.t, login.Token)
	api.token = login.Token
	return api
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.app.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.app.t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.app.srv.URL+path, r)
	require.NoError(c.app.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.app.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(c.app.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// browserClient keeps cookies and follows redirects like a browser.
type browserClient struct {
	app    *testApp
	client *http.Client
}

func (a *testApp) browser() *browserClient {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &browserClient{app: a, client: &http.Client{Jar: jar}}
}

func (b *browserClient) get(path string) (*http.Response, string) {
	b.app.t.Helper()
	resp, err := b.client.Get(b.app.srv.URL + path)
	require.NoError(b.app.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.app.t, err)
	return resp, string(body)
}

func (b *browserClient) postForm(path string, form url.Values) *http.Response {
	b.app.t.Helper()
	resp, err := b.client.PostForm(b.app.srv.URL+path, form)
	require.NoError(b.app.t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	var body map[string]string
	status := (&apiClient{app: app}).do(http.MethodGet, "/health", nil, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])
}

func TestAPIRequiresAuthentication(t *testing.T) {
	app := newTestApp(t)
	anon := &apiClient{app: app}

	var body errorResponse
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/todos", nil, &body))
	assert.Equal(t, "Authentication required", body.Error)

	anon.token = "not-a-token"
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/todos", nil, nil))
}

func TestAPILoginFailureIsGeneric(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice")
	anon := &apiClient{app: app}

	var wrongPassword, unknownUser errorResponse
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/api/login",
		map[string]string{"username": "alice", "password": "nope"}, &wrongPassword))
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/api/login",
		map[string]string{"username": "nobody", "password": "secret1"}, &unknownUser))
	assert.Equal(t, "Invalid username or password", wrongPassword.Error)
	assert.Equal(t, wrongPassword, unknownUser)
}

func TestAliceScenarioOverAPI(t *testing.T) {
	app := newTestApp(t)
	alice := app.signup("alice")

	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
	var created service.TodoResponse
	status := alice.do(http.MethodPost, "/api/todos", map[string]any{
		"title": "Buy milk", "priority": "high", "due_date": tomorrow,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "high", created.Priority)
	assert.Equal(t, tomorrow, *created.DueDate)
	assert.False(t, created.IsOverdue)

	var other service.TodoResponse
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/todos", map[string]any{"title": "Walk dog"}, &other))
	assert.Equal(t, "medium", other.Priority)

	var list todoListResponse
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/todos?priority=high", nil, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.ID, list.Todos[0].ID)

	var toggled service.TodoResponse
	require.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/api/todos/"+itoa(created.ID)+"/toggle", nil, &toggled))
	assert.True(t, toggled.IsCompleted)
	assert.NotNil(t, toggled.CompletedAt)

	require.Equal(t, http.StatusOK, alice.do(http.MethodDelete, "/api/todos/"+itoa(other.ID), nil, nil))

	var stats service.Stats
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/stats", nil, &stats))
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 100.0, stats.CompletionRate)
}

func TestAPITodoErrors(t *testing.T) {
	app := newTestApp(t)
	alice := app.signup("alice")

	var body errorResponse
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/todos", map[string]any{"description": "no title"}, &body))
	assert.Equal(t, "Title is required", body.Fields["title"])

	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/todos", `{"title":"x","owner":1}`, &body))
	assert.Contains(t, body.Error, "unknown field")

	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/todos", `{"title":`, nil))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/todos", "", nil))

	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodGet, "/api/todos?priority=critical", nil, &body))
	assert.Equal(t, "Invalid priority level", body.Error)
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodGet, "/api/todos?category_id=abc", nil, nil))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodGet, "/api/todos?search="+strings.Repeat("a", 501), nil, &body))
	assert.Equal(t, "Search query must be 500 characters or less", body.Error)

	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodGet, "/api/todos/999", nil, nil))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodGet, "/api/todos/abc", nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodGet, "/api/nope", nil, nil))
}

func TestAPIPartialUpdate(t *testing.T) {
	app := newTestApp(t)
	alice := app.signup("alice")

	var todo service.TodoResponse
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/todos", map[string]any{
		"title": "Draft", "description": "notes", "due_date": "2030-01-01T00:00:00Z",
	}, &todo))

	var updated service.TodoResponse
	require.Equal(t, http.StatusOK, alice.do(http.MethodPut, "/api/todos/"+itoa(todo.ID),
		`{"title":"Final","due_date":null}`, &updated))
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "notes", *updated.Description)
	assert.Nil(t, updated.DueDate)

	var body errorResponse
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPut, "/api/todos/"+itoa(todo.ID),
		`{"title":"   "}`, &body))
	assert.Contains(t, body.Fields, "title")
}

func TestAPIOwnershipIsolation(t *testing.T) {
	app := newTestApp(t)
	alice := app.signup("alice")
	bob := app.signup("bob")

	var todo service.TodoResponse
	require.Equal(t, http.StatusCreated, bob.do(http.MethodPost, "/api/todos", map[string]any{"title": "bob's"}, &todo))
	var cat service.CategoryResponse
	require.Equal(t, http.StatusCreated, bob.do(http.MethodPost, "/api/categories", map[string]any{"name": "Bob"}, &cat))

	path := "/api/todos/" + itoa(todo.ID)
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodGet, path, nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodPut, path, map[string]any{"title": "mine"}, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodPost, path+"/toggle", nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodDelete, path, nil, nil))

	catPath := "/api/categories/" + itoa(cat.ID)
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodGet, catPath, nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodDelete, catPath, nil, nil))

	var body errorResponse
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/todos",
		map[string]any{"title": "sneaky", "category_id": cat.ID}, &body))
	assert.Equal(t, "Invalid category", body.Fields["category_id"])

	var list todoListResponse
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/todos", nil, &list))
	assert.Zero(t, list.Count)

	var got service.TodoResponse
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, path, nil, &got))
	assert.Equal(t, "bob's", got.Title)
}

func TestAPICategories(t *testing.T) {
	app := newTestApp(t)
	alice := app.signup("alice")

	var body errorResponse
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/categories", map[string]any{"color": "#123456"}, &body))
	assert.Contains(t, body.Fields, "name")
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/categories",
		map[string]any{"name": "Work", "color": "#1a2b3"}, &body))
	assert.Contains(t, body.Fields, "color")

	var work service.CategoryResponse
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/categories",
		map[string]any{"name": "Work", "color": "#1a2b3c"}, &work))
	assert.Equal(t, "#1a2b3c", work.Color)

	var todo service.TodoResponse
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/todos",
		map[string]any{"title": "Report", "category_id": work.ID}, &todo))
	require.NotNil(t, todo.Category)
	assert.Equal(t, "Work", todo.Category.Name)

	var list categoryListResponse
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/categories", nil, &list))
	require.Equal(t, 1, list.Count)
	require.NotNil(t, list.Categories[0].TodoCount)
	assert.Equal(t, int64(1), *list.Categories[0].TodoCount)

	var filtered todoListResponse
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/todos?category_id="+itoa(work.ID), nil, &filtered))
	assert.Equal(t, 1, filtered.Count)

	catPath := "/api/categories/" + itoa(work.ID)
	assert.Equal(t, http.StatusConflict, alice.do(http.MethodDelete, catPath, nil, nil))

	var renamed service.CategoryResponse
	require.Equal(t, http.StatusOK, alice.do(http.MethodPut, catPath, map[string]any{"name": "Office"}, &renamed))
	assert.Equal(t, "Office", renamed.Name)
	assert.Equal(t, "#1a2b3c", renamed.Color)

	require.Equal(t, http.StatusOK, alice.do(http.MethodDelete, "/api/todos/"+itoa(todo.ID), nil, nil))
	assert.Equal(t, http.StatusOK, alice.do(http.MethodDelete, catPath, nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodGet, catPath, nil, nil))
}

func TestAPIExports(t *testing.T) {
	app := newTestApp(t)
	alice := app.signup("alice")
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/todos",
		map[string]any{"title": "Buy milk, eggs", "due_date": "2030-02-01T09:30:00Z"}, nil))

	var export service.Export
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/export/json", nil, &export))
	assert.Equal(t, "alice", export.User)
	assert.NotEmpty(t, export.ExportedAt)
	require.Len(t, export.Todos, 1)

	req, err := http.NewRequest(http.MethodGet, app.srv.URL+"/api/export/csv", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+alice.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "todos_alice.csv")
	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Buy milk, eggs", rows[1][1])
	assert.Equal(t, "No", rows[1][4])
	assert.Equal(t, "2030-02-01 09:30", rows[1][5])
}

func TestAPILogoutAndAccountDeletion(t *testing.T) {
	app := newTestApp(t)
	alice := app.signup("alice")

	require.Equal(t, http.StatusNoContent, alice.do(http.MethodPost, "/api/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, alice.do(http.MethodGet, "/api/todos", nil, nil))

	var login loginResponse
	require.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/api/login",
		map[string]string{"username": "alice", "password": "secret1"}, &login))
	alice.token = login.Token

	require.Equal(t, http.StatusNoContent, alice.do(http.MethodDelete, "/api/account", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, alice.do(http.MethodGet, "/api/todos", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, alice.do(http.MethodPost, "/api/login",
		map[string]string{"username": "alice", "password": "secret1"}, nil))
}

func TestWebRedirectsAnonymousToLogin(t *testing.T) {
	app := newTestApp(t)
	resp, body := app.browser().get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, body, "Please log in to access this page.")
}

func TestWebFlow(t *testing.T) {
	app := newTestApp(t)
	b := app.browser()

	resp := b.postForm("/register", url.Values{
		"username": {"alice"}, "email": {"alice@x.com"},
		"password": {"secret1"}, "confirm_password": {"secret1"},
	})
	assert.Equal(t, "/login", resp.Request.URL.Path)

	resp = b.postForm("/login", url.Values{"username": {"alice"}, "password": {"secret1"}})
	assert.Equal(t, "/", resp.Request.URL.Path)

	resp = b.postForm("/categories/add", url.Values{"name": {"Home"}, "color": {"#1a2b3c"}})
	assert.Equal(t, "/categories", resp.Request.URL.Path)

	resp = b.postForm("/add", url.Values{
		"title": {"Water plants"}, "description": {"the fern"}, "priority": {"urgent"},
		"due_date": {"2030-06-01T08:00"},
	})
	assert.Equal(t, "/", resp.Request.URL.Path)

	_, body := b.get("/")
	assert.Contains(t, body, "Water plants")
	assert.Contains(t, body, "2030-06-01 08:00")

	_, body = b.get("/search?q=FERN")
	assert.Contains(t, body, "Water plants", "web search matches the description")

	_, body = b.get("/search?q=" + strings.Repeat("a", 501))
	assert.Contains(t, body, "Search query must be 500 characters or less")
	assert.Contains(t, body, "Water plants", "an over-long query falls back to the full list")

	_, body = b.get("/?priority=critical")
	assert.Contains(t, body, "Invalid priority level")
	assert.Contains(t, body, "Water plants", "an invalid filter falls back to the unfiltered list")

	_, body = b.get("/?status=completed")
	assert.NotContains(t, body, "Water plants")

	_, body = b.get("/dashboard")
	assert.Contains(t, body, "Dashboard")
	assert.Contains(t, body, "Home")

	_, body = b.get("/logout")
	assert.Contains(t, body, "You have been logged out.")
	resp, _ = b.get("/")
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestWebFormValidation(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice")
	b := app.browser()
	b.postForm("/login", url.Values{"username": {"alice"}, "password": {"secret1"}})

	resp := b.postForm("/add", url.Values{"title": {strings.Repeat("x", 101)}, "priority": {"medium"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = b.postForm("/categories/add", url.Values{"name": {"Bad"}, "color": {"zzzzzz"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = b.postForm("/register", url.Values{
		"username": {"bob"}, "email": {"bob@x.com"},
		"password": {"secret1"}, "confirm_password": {"secret2"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = b.postForm("/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebNotFoundFlashesAndRedirects(t *testing.T) {
	app := newTestApp(t)
	app.signup("alice")
	bob := app.signup("bob")
	var todo service.TodoResponse
	require.Equal(t, http.StatusCreated, bob.do(http.MethodPost, "/api/todos", map[string]any{"title": "bob's"}, &todo))

	b := app.browser()
	b.postForm("/login", url.Values{"username": {"alice"}, "password": {"secret1"}})

	resp, body := b.get("/edit/" + itoa(todo.ID))
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.Contains(t, body, "The requested item was not found.")

	b.get("/complete/" + itoa(todo.ID))
	b.get("/delete/" + itoa(todo.ID))

	var got service.TodoResponse
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/api/todos/"+itoa(todo.ID), nil, &got))
	assert.False(t, got.IsCompleted)
}

func TestRenderShowsQueuedAndPageFlash(t *testing.T) {
	queued := httptest.NewRecorder()
	setFlash(queued, flashSuccess, "Registration successful! Please log in.")

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	for _, c := range queued.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	flash := &flashMessage{Kind: flashError, Message: "Invalid username or password"}
	(&Server{}).render(rec, req, http.StatusUnauthorized, "login.tmpl", page{Title: "Login", Flash: flash, Data: authForm{}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Registration successful! Please log in.")
	assert.Contains(t, body, "Invalid username or password")
	assert.Less(t, strings.Index(body, "Registration successful"), strings.Index(body, "Invalid username"))

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "the queued flash is consumed")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
