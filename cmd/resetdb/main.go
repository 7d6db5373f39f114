// Command resetdb drops every table and recreates the schema. All data is
// lost, so it asks for confirmation unless -yes is given.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Tomlord1122/todo-tracker/internal/config"
	"github.com/Tomlord1122/todo-tracker/internal/database"
)

func main() {
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if !*yes && !confirm(os.Stdin, os.Stdout) {
		fmt.Println("Database reset cancelled.")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer dbService.Close()

	log.Println("Dropping all tables and recreating the schema...")
	if err := database.Reset(dbService.GetDB()); err != nil {
		log.Fatalf("Database reset failed: %v", err)
	}
	log.Println("Database reset complete!")
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "This will delete all data in the database. Continue? (yes/no): ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}
