package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

type tallyRepository struct {
	db *sql.DB
}

func NewTallyRepository(db *sql.DB) ports.TallyRepository {
	return &tallyRepository{
		db: db,
	}
}

func (r *tallyRepository) Increment(ctx context.Context, optionID uuid.UUID) error {
	query := `UPDATE poll_options SET vote_count = vote_count + 1 WHERE id = $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, optionID)
	if err != nil {
		return domain.NewStorageError("increment tally", fmt.Errorf("failed to increment option %s: %w", optionID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError("increment tally", err)
	}
	if n == 0 {
		return domain.ErrOptionNotFound
	}
	return nil
}

func (r *tallyRepository) Counts(ctx context.Context, pollID uuid.UUID) ([]domain.OptionCount, error) {
	query := `
		SELECT id, label, vote_count
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY position
	`
	return r.queryCounts(ctx, "read tally", query, pollID)
}

func (r *tallyRepository) queryCounts(ctx context.Context, op, query string, pollID uuid.UUID) ([]domain.OptionCount, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, domain.NewStorageError(op, fmt.Errorf("failed to fetch counts: %w", err))
	}
	defer rows.Close()

	var counts []domain.OptionCount
	for rows.Next() {
		var c domain.OptionCount
		if err := rows.Scan(&c.OptionID, &c.Label, &c.VoteCount); err != nil {
			return nil, domain.NewStorageError(op, fmt.Errorf("failed to scan counts: %w", err))
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError(op, fmt.Errorf("error iterating counts: %w", err))
	}
	if len(counts) == 0 {
		return nil, domain.ErrPollNotFound
	}
	return counts, nil
}

// Snapshot is a single statement, so both columns come from one snapshot.
func (r *tallyRepository) Snapshot(ctx context.Context, pollID uuid.UUID) ([]domain.OptionTally, error) {
	query := `
		SELECT o.id, o.label, o.vote_count, COUNT(v.id)
		FROM poll_options o
		LEFT JOIN votes v ON v.option_id = o.id
		WHERE o.poll_id = $1
		GROUP BY o.id, o.label, o.vote_count, o.position
		ORDER BY o.position
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, domain.NewStorageError("audit tally", fmt.Errorf("failed to fetch tally snapshot: %w", err))
	}
	defer rows.Close()

	var tallies []domain.OptionTally
	for rows.Next() {
		var t domain.OptionTally
		if err := rows.Scan(&t.OptionID, &t.Label, &t.Materialized, &t.Ledger); err != nil {
			return nil, domain.NewStorageError("audit tally", fmt.Errorf("failed to scan tally: %w", err))
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("audit tally", fmt.Errorf("error iterating tallies: %w", err))
	}
	if len(tallies) == 0 {
		return nil, domain.ErrPollNotFound
	}
	return tallies, nil
}

// Reconcile takes the poll row FOR UPDATE before rewriting the counts. The
// lock conflicts with the FOR SHARE held by every vote transaction, so the
// UPDATE runs after in-flight votes commit and before new ones start.
func (r *tallyRepository) Reconcile(ctx context.Context, pollID uuid.UUID) error {
	return withinTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)

		var id uuid.UUID
		err := q.QueryRowContext(ctx, `SELECT id FROM polls WHERE id = $1 FOR UPDATE`, pollID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrPollNotFound
			}
			return domain.NewStorageError("reconcile tally", fmt.Errorf("failed to lock poll %s: %w", pollID, err))
		}

		query := `
			UPDATE poll_options o
			SET vote_count = (SELECT COUNT(*) FROM votes v WHERE v.option_id = o.id)
			WHERE o.poll_id = $1
		`
		if _, err := q.ExecContext(ctx, query, pollID); err != nil {
			return domain.NewStorageError("reconcile tally", fmt.Errorf("failed to reconcile votes for poll %s: %w", pollID, err))
		}
		return nil
	})
}
