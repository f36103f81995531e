package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/benvon/break-my-assignment/internal/config"
	"github.com/benvon/break-my-assignment/internal/database"
)

const commandTimeout = 30 * time.Second

// withDatabase loads configuration, opens the database and runs fn against it
func withDatabase(fn func(ctx context.Context, cfg *config.Config, db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	return fn(ctx, cfg, db)
}
