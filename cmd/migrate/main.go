package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"gemini-gateway/config"
	"gemini-gateway/pkg/database"
	"gemini-gateway/pkg/logger"
)

const usage = `
Gemini Gateway - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Apply the embedded SQL migrations
  status      Show database connection status and known tables

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

var coreTables = []string{"users", "user_sessions", "chats", "chat_messages"}

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	command := flag.Arg(0)
	if command != "up" && command != "status" {
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	l := logger.New(cfg.Environment)
	defer l.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StartupTimeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	switch command {
	case "up":
		if err := database.ApplyMigrations(ctx, db, l); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
	case "status":
		showStatus(ctx, db)
	}
}

func showStatus(ctx context.Context, db *sql.DB) {
	if err := database.HealthCheck(ctx, db); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	names, err := database.MigrationNames()
	if err != nil {
		log.Fatalf("Reading migrations failed: %v", err)
	}
	log.Printf("Embedded migrations: %v", names)

	for _, table := range coreTables {
		exists, err := database.TableExists(ctx, db, table)
		switch {
		case err != nil:
			log.Printf("Error checking table %s: %v", table, err)
		case exists:
			log.Printf("Table %-15s exists", table)
		default:
			log.Printf("Table %-15s does not exist", table)
		}
	}
}
