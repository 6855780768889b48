package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"docuvault/internal/config"
	"docuvault/internal/repository/postgres/migrations"
)

// Applies all pending schema migrations. Usage:
//
//	migrate        apply pending migrations
//	migrate check  report schema status without changing anything
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if len(os.Args) > 1 && os.Args[1] == "check" {
		if err := migrations.CheckStatus(db); err != nil {
			log.Fatalf("Schema check failed: %v", err)
		}
		log.Println("schema is up to date")
		return
	}

	if err := migrations.Up(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("migrations applied")
}
