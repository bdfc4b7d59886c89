package db

import (
	"database/sql"
	"fmt"
	"os"

	"finance-advisor/api/logger"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDB opens the Postgres connection holding the recommendations catalog.
func InitDB() error {
	dbURL := os.Getenv("SUPABASE_DB_URL")
	if dbURL == "" {
		return fmt.Errorf("SUPABASE_DB_URL environment variable not set")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("error opening database: %v", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("error connecting to the database: %v", err)
	}

	logger.Get().Info("successfully connected to Postgres")
	return nil
}

// CloseDB closes the database connection
func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
