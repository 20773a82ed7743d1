package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/pollvote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/pollvote/internal/app"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

// tallyaudit compares every poll's materialized counts with its vote ledger
// and logs any drift. With -repair the counts are rebuilt from the ledger.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}

	var (
		dbHost, dbPort, dbUser, dbPass, dbName string
		repair                                 bool
		interval, timeout                      time.Duration
	)

	flag.StringVar(&dbHost, "db-host", os.Getenv("POSTGRES_HOST"), "Database host")
	flag.StringVar(&dbPort, "db-port", os.Getenv("POSTGRES_PORT"), "Database port")
	flag.StringVar(&dbUser, "db-user", os.Getenv("POSTGRES_USER"), "Database user")
	flag.StringVar(&dbPass, "db-pass", os.Getenv("POSTGRES_PASSWORD"), "Database password")
	flag.StringVar(&dbName, "db-name", os.Getenv("POSTGRES_DB"), "Database name")
	flag.BoolVar(&repair, "repair", false, "Rebuild drifted counts from the vote ledger")
	flag.DurationVar(&interval, "interval", 0, "Repeat the audit at this interval (0 runs once)")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Timeout for a single audit run")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, postgres.ConnString(dbUser, dbPass, dbHost, dbPort, dbName), postgres.Options{})
	if err != nil {
		slog.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tally := app.NewServices(app.PostgresStores(db), nil).Tally

	if interval <= 0 {
		if err := run(ctx, tally, repair, timeout); err != nil {
			slog.Error("tally audit failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := run(ctx, tally, repair, timeout); err != nil {
			slog.Error("tally audit failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("tally audit stopped")
			return
		case <-ticker.C:
		}
	}
}

func run(ctx context.Context, tally ports.TallyService, repair bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.Info("starting tally audit...")

	audits, err := tally.AuditAll(ctx)
	if err != nil {
		return err
	}

	drifted := 0
	for _, audit := range audits {
		if audit.Consistent() {
			continue
		}
		drifted++
		for _, d := range audit.Drift {
			slog.Warn("tally drift",
				"poll_id", audit.PollID,
				"option_id", d.OptionID,
				"materialized", d.Materialized,
				"ledger", d.Ledger,
			)
		}
		if repair {
			if err := tally.Reconcile(ctx, audit.PollID); err != nil {
				return err
			}
			slog.Info("tally repaired", "poll_id", audit.PollID)
		}
	}

	slog.Info("tally audit completed", "polls", len(audits), "drifted", drifted)
	return nil
}
