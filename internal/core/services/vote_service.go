package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

type voteService struct {
	pollRepo ports.PollRepository
	voteRepo ports.VoteRepository
	tally    ports.TallyService
	tx       ports.Transactor
	cache    ports.VoterCache
	metrics  ports.VoteMetrics
	now      func() time.Time
}

type VoteServiceOption func(*voteService)

// WithVoterCache serves the "already voted" pre-check from cache instead of
// the vote repository.
func WithVoterCache(cache ports.VoterCache) VoteServiceOption {
	return func(s *voteService) {
		s.cache = cache
	}
}

func WithVoteMetrics(metrics ports.VoteMetrics) VoteServiceOption {
	return func(s *voteService) {
		s.metrics = metrics
	}
}

func NewVoteService(pollRepo ports.PollRepository, voteRepo ports.VoteRepository, tally ports.TallyService, tx ports.Transactor, opts ...VoteServiceOption) ports.VoteService {
	s := &voteService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
		tally:    tally,
		tx:       tx,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *voteService) CastVote(ctx context.Context, input ports.VoteInput) (outcome domain.VoteOutcome) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveVote(input.PollID, outcome.Reason, s.now().Sub(start))
		}
	}()

	voterID := strings.TrimSpace(input.VoterID)
	if voterID == "" {
		return domain.Rejected(domain.RejectionInvalidInput, domain.NewValidationError("voter_id", "voter is required"))
	}

	poll, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		return s.reject(input, err)
	}
	if !poll.IsOpen() {
		return domain.Rejected(domain.RejectionPollClosed, domain.ErrPollClosed)
	}
	if _, ok := poll.Option(input.OptionID); !ok {
		return domain.Rejected(domain.RejectionOptionNotFound, domain.ErrOptionNotFound)
	}

	if s.seenVoter(ctx, input.PollID, voterID) {
		return domain.Rejected(domain.RejectionAlreadyVoted, domain.ErrAlreadyVoted)
	}

	vote := &domain.Vote{
		ID:        uuid.New(),
		PollID:    input.PollID,
		OptionID:  input.OptionID,
		VoterID:   voterID,
		CreatedAt: s.now().UTC(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.pollRepo.LockOpen(ctx, vote.PollID); err != nil {
			return err
		}
		if err := s.voteRepo.SaveVote(ctx, vote); err != nil {
			return err
		}
		return s.tally.Increment(ctx, vote.OptionID)
	})
	if err != nil {
		return s.reject(input, err)
	}

	if s.cache != nil {
		if err := s.cache.MarkVoted(ctx, vote.PollID, voterID); err != nil {
			slog.Warn("failed to cache voter", "poll_id", vote.PollID, "error", err)
		}
	}

	return domain.Accepted(vote)
}

// seenVoter is the optimistic pre-check. Errors are logged and treated as
// "not seen" so the insert decides.
func (s *voteService) seenVoter(ctx context.Context, pollID uuid.UUID, voterID string) bool {
	var (
		voted bool
		err   error
	)
	if s.cache != nil {
		voted, err = s.cache.HasVoted(ctx, pollID, voterID)
	} else {
		voted, err = s.voteRepo.HasVoted(ctx, pollID, voterID)
	}
	if err != nil {
		slog.Warn("vote pre-check failed", "poll_id", pollID, "error", err)
		return false
	}
	return voted
}

func (s *voteService) reject(input ports.VoteInput, err error) domain.VoteOutcome {
	reason := domain.RejectionFor(err)
	if reason == domain.RejectionStorageError {
		slog.Error("failed to cast vote", "poll_id", input.PollID, "option_id", input.OptionID, "error", err)
	}
	return domain.Rejected(reason, err)
}

func (s *voteService) GetVote(ctx context.Context, pollID uuid.UUID, voterID string) (*domain.Vote, error) {
	if strings.TrimSpace(voterID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.voteRepo.GetVote(ctx, pollID, voterID)
}
