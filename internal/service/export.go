package service

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

const csvTimeLayout = "2006-01-02 15:04"

var csvHeader = []string{
	"ID", "Title", "Description", "Priority", "Completed",
	"Due Date", "Category", "Created At", "Completed At",
}

// Export is the JSON export document.
type Export struct {
	Todos      []TodoResponse `json:"todos"`
	ExportedAt string         `json:"exported_at"`
	User       string         `json:"user"`
}

// NewExport builds the JSON export for username.
func NewExport(username string, todos []domain.Todo, now time.Time) Export {
	return Export{
		Todos:      NewTodoResponses(todos, now),
		ExportedAt: formatTime(now),
		User:       username,
	}
}

// WriteCSV writes one row per todo after a header row. Missing values are
// empty cells.
func WriteCSV(w io.Writer, todos []domain.Todo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range todos {
		t := &todos[i]
		completed := "No"
		if t.IsCompleted {
			completed = "Yes"
		}
		category := ""
		if t.Category != nil {
			category = t.Category.Name
		}
		row := []string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.Title,
			t.DescriptionText(),
			t.Priority.String(),
			completed,
			csvTime(t.DueDate),
			category,
			csvTime(&t.CreatedAt),
			csvTime(t.CompletedAt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(csvTimeLayout)
}

// CSVFilename is the attachment name offered for username's export.
func CSVFilename(username string) string {
	return "todos_" + username + ".csv"
}
