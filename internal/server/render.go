package server

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	displayTimeLayout = "2006-01-02 15:04"
	inputTimeLayout   = "2006-01-02T15:04"
)

var templateFuncs = template.FuncMap{
	"datetime": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(displayTimeLayout)
	},
	"deref": func(n *int) int {
		if n == nil {
			return 0
		}
		return *n
	},
}

var pages = parsePages(
	"index.tmpl",
	"dashboard.tmpl",
	"todo_form.tmpl",
	"categories.tmpl",
	"category_form.tmpl",
	"login.tmpl",
	"register.tmpl",
)

func parsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.New(name).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.tmpl", "templates/"+name))
	}
	return out
}

// page is what every template receives. Data holds the page-specific view.
// Flash is a message raised while handling this request; render shows it
// after any message queued by a previous redirect.
type page struct {
	Title   string
	User    *domain.User
	Flash   *flashMessage
	Flashes []flashMessage
	Errors  map[string]string
	Data    any
}

// render executes a page inside the layout.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	tmpl, ok := pages[name]
	if !ok {
		log.Printf("Unknown template %q", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if id := identityFrom(r.Context()); id != nil {
		p.User = id.User
	}
	if queued := popFlash(w, r); queued != nil {
		p.Flashes = append(p.Flashes, *queued)
	}
	if p.Flash != nil {
		p.Flashes = append(p.Flashes, *p.Flash)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// todoView adds the derived fields a template needs to a todo.
type todoView struct {
	domain.Todo
	Overdue      bool
	DaysUntilDue *int
}

func newTodoViews(todos []domain.Todo, now time.Time) []todoView {
	out := make([]todoView, 0, len(todos))
	for _, t := range todos {
		out = append(out, todoView{Todo: t, Overdue: t.IsOverdue(now), DaysUntilDue: t.DaysUntilDue(now)})
	}
	return out
}
