package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vncsmyrnk/pollvote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
	"github.com/vncsmyrnk/pollvote/internal/core/services"
)

type testStore struct {
	db    *sql.DB
	polls ports.PollRepository
	votes ports.VoteRepository
	tally ports.TallyRepository
	tx    ports.Transactor
}

func setupStore(t *testing.T) *testStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Open(ctx, dsn, postgres.Options{MaxOpenConns: 20, ConnectTimeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db))
	// Migrations are idempotent.
	require.NoError(t, postgres.Migrate(ctx, db))

	return &testStore{
		db:    db,
		polls: postgres.NewPollRepository(db),
		votes: postgres.NewVoteRepository(db),
		tally: postgres.NewTallyRepository(db),
		tx:    postgres.NewTransactor(db),
	}
}

func (s *testStore) services() (ports.PollService, ports.VoteService, ports.TallyService) {
	tally := services.NewTallyService(s.polls, s.tally)
	polls := services.NewPollService(s.polls, tally, nil)
	votes := services.NewVoteService(s.polls, s.votes, tally, s.tx)
	return polls, votes, tally
}
