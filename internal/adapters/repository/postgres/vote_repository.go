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

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

// SaveVote relies on votes_poll_id_voter_id_key: of two racing inserts for
// the same poll and voter, the second is rejected by PostgreSQL.
func (r *voteRepository) SaveVote(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (id, poll_id, option_id, voter_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, vote.ID, vote.PollID, vote.OptionID, vote.VoterID, vote.CreatedAt)
	switch {
	case err == nil:
		return nil
	case isViolation(err, codeUniqueViolation, constraintOneVotePerVoter):
		return domain.ErrAlreadyVoted
	case isViolation(err, codeForeignKeyViolation, constraintOptionInPoll):
		return domain.ErrOptionNotFound
	default:
		return domain.NewStorageError("save vote", fmt.Errorf("failed to save vote: %w", err))
	}
}

func (r *voteRepository) HasVoted(ctx context.Context, pollID uuid.UUID, voterID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM votes WHERE poll_id = $1 AND voter_id = $2)`
	var exists bool
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, pollID, voterID).Scan(&exists); err != nil {
		return false, domain.NewStorageError("check vote", fmt.Errorf("failed to check existing vote: %w", err))
	}
	return exists, nil
}

func (r *voteRepository) GetVote(ctx context.Context, pollID uuid.UUID, voterID string) (*domain.Vote, error) {
	query := `
		SELECT id, poll_id, option_id, voter_id, created_at
		FROM votes
		WHERE poll_id = $1 AND voter_id = $2
	`
	var vote domain.Vote
	err := conn(ctx, r.db).QueryRowContext(ctx, query, pollID, voterID).Scan(
		&vote.ID, &vote.PollID, &vote.OptionID, &vote.VoterID, &vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, domain.NewStorageError("get vote", fmt.Errorf("failed to get vote: %w", err))
	}
	return &vote, nil
}
