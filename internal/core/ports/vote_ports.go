package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
)

type VoteRepository interface {
	// SaveVote fails with ErrAlreadyVoted when the store rejects a second
	// vote for the same poll and voter.
	SaveVote(ctx context.Context, vote *domain.Vote) error
	HasVoted(ctx context.Context, pollID uuid.UUID, voterID string) (bool, error)
	GetVote(ctx context.Context, pollID uuid.UUID, voterID string) (*domain.Vote, error)
}

// VoterCache remembers who already voted. It only short-circuits obvious
// repeats; the store's uniqueness constraint stays authoritative.
type VoterCache interface {
	HasVoted(ctx context.Context, pollID uuid.UUID, voterID string) (bool, error)
	MarkVoted(ctx context.Context, pollID uuid.UUID, voterID string) error
}

type VoteMetrics interface {
	ObserveVote(pollID uuid.UUID, reason domain.VoteRejection, elapsed time.Duration)
}

type VoteInput struct {
	PollID   uuid.UUID
	OptionID uuid.UUID
	VoterID  string
}

type VoteService interface {
	CastVote(ctx context.Context, input VoteInput) domain.VoteOutcome
	GetVote(ctx context.Context, pollID uuid.UUID, voterID string) (*domain.Vote, error)
}
