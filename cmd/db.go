package cmd

import (
	"fmt"

	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/pkg/config"
)

// openDatabase opens the configured database without migrating it
func openDatabase() (*database.DB, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// withDatabase runs fn against the configured database and closes it afterwards
func withDatabase(fn func(db *database.DB) error) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
