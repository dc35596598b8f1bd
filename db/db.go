package db

import (
	"database/sql"
	"fmt"

	"income-bridge/api/config"
	"income-bridge/api/logger"

	_ "github.com/lib/pq"
)

// Open connects to the audit database.
func Open(cfg *config.Config) (*sql.DB, error) {
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("POSTGRES_URL environment variable not set")
	}

	database, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	logger.Get().Info("successfully connected to Postgres")
	return database, nil
}
