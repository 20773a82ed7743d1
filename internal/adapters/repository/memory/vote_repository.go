package memory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

var errDuplicateKey = errors.New("duplicate key")

type voteRepository struct {
	s *Store
}

func NewVoteRepository(s *Store) ports.VoteRepository {
	return &voteRepository{s: s}
}

func (r *voteRepository) SaveVote(ctx context.Context, vote *domain.Vote) error {
	defer r.s.lock(ctx)()

	key := voterKey{pollID: vote.PollID, voterID: vote.VoterID}
	if _, ok := r.s.st.voters[key]; ok {
		return domain.ErrAlreadyVoted
	}
	p, ok := r.s.st.polls[vote.PollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	if _, ok := p.Option(vote.OptionID); !ok {
		return domain.ErrOptionNotFound
	}
	if _, ok := r.s.st.votes[vote.ID]; ok {
		return domain.NewStorageError("save vote", errDuplicateKey)
	}

	r.s.st.votes[vote.ID] = *vote
	r.s.st.voters[key] = vote.ID
	r.s.onRollback(ctx, func() {
		delete(r.s.st.votes, vote.ID)
		delete(r.s.st.voters, key)
	})
	return nil
}

func (r *voteRepository) HasVoted(ctx context.Context, pollID uuid.UUID, voterID string) (bool, error) {
	defer r.s.lock(ctx)()

	_, ok := r.s.st.voters[voterKey{pollID: pollID, voterID: voterID}]
	return ok, nil
}

func (r *voteRepository) GetVote(ctx context.Context, pollID uuid.UUID, voterID string) (*domain.Vote, error) {
	defer r.s.lock(ctx)()

	id, ok := r.s.st.voters[voterKey{pollID: pollID, voterID: voterID}]
	if !ok {
		return nil, domain.ErrVoteNotFound
	}
	vote := r.s.st.votes[id]
	return &vote, nil
}
