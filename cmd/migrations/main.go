package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/pollvote/internal/adapters/repository/postgres"
)

// Usage: migrations [name]. Without a name every up migration is applied.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := postgres.ConnString(
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_PORT"),
		os.Getenv("POSTGRES_DB"),
	)
	db, err := postgres.Open(ctx, dsn, postgres.Options{ConnectTimeout: 30 * time.Second})
	if err != nil {
		slog.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if name := flag.Arg(0); name != "" {
		err = postgres.ApplyMigration(ctx, db, name)
	} else {
		err = postgres.Migrate(ctx, db)
	}
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migrations executed successfully")
}
