package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	return withinTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)

		queryPoll := `
			INSERT INTO polls (id, title, creator_id, status, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := q.ExecContext(ctx, queryPoll, poll.ID, poll.Title, poll.CreatorID, poll.Status, poll.CreatedAt)
		if err != nil {
			return domain.NewStorageError("save poll", fmt.Errorf("failed to insert poll: %w", err))
		}

		queryOption := `
			INSERT INTO poll_options (id, poll_id, label, position, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, opt := range poll.Options {
			_, err = q.ExecContext(ctx, queryOption, opt.ID, opt.PollID, opt.Label, opt.Position, opt.CreatedAt)
			if err != nil {
				return domain.NewStorageError("save poll", fmt.Errorf("failed to insert option: %w", err))
			}
		}

		return nil
	})
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	queryPoll := `
		SELECT id, title, creator_id, status, created_at, closed_at
		FROM polls
		WHERE id = $1
	`

	var poll domain.Poll
	err := conn(ctx, r.db).QueryRowContext(ctx, queryPoll, id).Scan(
		&poll.ID, &poll.Title, &poll.CreatorID, &poll.Status, &poll.CreatedAt, &poll.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, domain.NewStorageError("get poll", fmt.Errorf("failed to get poll: %w", err))
	}

	options, err := r.fetchOptions(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	poll.Options = options

	return &poll, nil
}

func (r *pollRepository) ListByCreator(ctx context.Context, creatorID string) iter.Seq2[*domain.Poll, error] {
	query := `
		SELECT p.id, p.title, p.creator_id, p.status, p.created_at, p.closed_at,
		       o.id, o.label, o.position, o.vote_count, o.created_at
		FROM polls p
		JOIN poll_options o ON o.poll_id = p.id
		WHERE p.creator_id = $1
		ORDER BY p.created_at DESC, p.id, o.position
	`

	return func(yield func(*domain.Poll, error) bool) {
		rows, err := conn(ctx, r.db).QueryContext(ctx, query, creatorID)
		if err != nil {
			yield(nil, domain.NewStorageError("list polls", fmt.Errorf("failed to list polls: %w", err)))
			return
		}
		defer rows.Close()

		// Rows arrive grouped by poll; a poll is complete once the next one starts.
		var current *domain.Poll
		for rows.Next() {
			var (
				poll domain.Poll
				opt  domain.PollOption
			)
			err := rows.Scan(
				&poll.ID, &poll.Title, &poll.CreatorID, &poll.Status, &poll.CreatedAt, &poll.ClosedAt,
				&opt.ID, &opt.Label, &opt.Position, &opt.VoteCount, &opt.CreatedAt,
			)
			if err != nil {
				yield(nil, domain.NewStorageError("list polls", fmt.Errorf("failed to scan poll: %w", err)))
				return
			}

			if current != nil && current.ID != poll.ID {
				if !yield(current, nil) {
					return
				}
				current = nil
			}
			if current == nil {
				current = &poll
			}
			opt.PollID = current.ID
			current.Options = append(current.Options, opt)
		}
		if err := rows.Err(); err != nil {
			yield(nil, domain.NewStorageError("list polls", fmt.Errorf("error iterating polls: %w", err)))
			return
		}
		if current != nil {
			yield(current, nil)
		}
	}
}

func (r *pollRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT id FROM polls ORDER BY created_at`)
	if err != nil {
		return nil, domain.NewStorageError("list polls", fmt.Errorf("failed to get all polls: %w", err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewStorageError("list polls", fmt.Errorf("failed to scan poll id: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list polls", fmt.Errorf("error iterating polls: %w", err))
	}
	return ids, nil
}

func (r *pollRepository) LockOpen(ctx context.Context, id uuid.UUID) error {
	var status domain.PollStatus
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT status FROM polls WHERE id = $1 FOR SHARE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPollNotFound
		}
		return domain.NewStorageError("lock poll", fmt.Errorf("failed to lock poll: %w", err))
	}
	if status != domain.PollStatusOpen {
		return domain.ErrPollClosed
	}
	return nil
}

func (r *pollRepository) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	query := `
		UPDATE polls SET status = 'closed', closed_at = $2
		WHERE id = $1 AND status = 'open'
	`
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx, query, id, closedAt)
	if err != nil {
		return domain.NewStorageError("close poll", fmt.Errorf("failed to close poll: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError("close poll", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM polls WHERE id = $1)`, id).Scan(&exists); err != nil {
		return domain.NewStorageError("close poll", fmt.Errorf("failed to check poll: %w", err))
	}
	if !exists {
		return domain.ErrPollNotFound
	}
	return domain.ErrPollClosed
}

func (r *pollRepository) fetchOptions(ctx context.Context, pollID uuid.UUID) ([]domain.PollOption, error) {
	queryOptions := `
		SELECT id, poll_id, label, position, vote_count, created_at
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY position
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, queryOptions, pollID)
	if err != nil {
		return nil, domain.NewStorageError("get poll", fmt.Errorf("failed to get poll options: %w", err))
	}
	defer rows.Close()

	var options []domain.PollOption
	for rows.Next() {
		var opt domain.PollOption
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Label, &opt.Position, &opt.VoteCount, &opt.CreatedAt); err != nil {
			return nil, domain.NewStorageError("get poll", fmt.Errorf("failed to scan option: %w", err))
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("get poll", fmt.Errorf("error iterating options: %w", err))
	}
	return options, nil
}
