package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// Migrate applies every up migration in file name order. The migrations are
// idempotent, so running it against an existing schema is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := upMigrations()
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := ApplyMigration(ctx, db, name); err != nil {
			return err
		}
	}
	return nil
}

// ApplyMigration runs the single migration whose file name contains name.
func ApplyMigration(ctx context.Context, db *sql.DB, name string) error {
	file, err := migrationFile(name)
	if err != nil {
		return err
	}

	content, err := fs.ReadFile(migrationFiles, migrationsDir+"/"+file)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", file, err)
	}

	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", file, err)
	}
	return nil
}

func upMigrations() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func migrationFile(name string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s(\.up)?\.sql$`, regexp.QuoteMeta(name)))
	if err != nil {
		return "", fmt.Errorf("invalid migration name %q: %w", name, err)
	}

	names, err := upMigrations()
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if regex.MatchString(n) {
			return n, nil
		}
	}

	return "", fmt.Errorf("migration file not found: %s", name)
}
