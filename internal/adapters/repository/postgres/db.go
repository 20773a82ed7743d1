package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	// ConnectTimeout bounds how long Open keeps retrying the first ping.
	ConnectTimeout time.Duration
}

// Open connects to PostgreSQL and waits, with exponential backoff, until the
// server answers.
func Open(ctx context.Context, dsn string, opts Options) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}

	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = opts.ConnectTimeout
	if eb.MaxElapsedTime <= 0 {
		eb.MaxElapsedTime = 30 * time.Second
	}

	ping := func() error {
		return db.PingContext(ctx)
	}
	if err := backoff.Retry(ping, backoff.WithContext(eb, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return db, nil
}

func ConnString(user, password, host, port, dbName string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
}
