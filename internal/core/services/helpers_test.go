package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/pollvote/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
	"github.com/vncsmyrnk/pollvote/internal/core/services"
)

type testEnv struct {
	pollRepo  ports.PollRepository
	voteRepo  ports.VoteRepository
	tallyRepo *flakyTally
	tally     ports.TallyService
	polls     ports.PollService
	votes     ports.VoteService
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, opts ...services.VoteServiceOption) *testEnv {
	t.Helper()

	store := memory.NewStore()
	env := &testEnv{
		pollRepo:  memory.NewPollRepository(store),
		voteRepo:  memory.NewVoteRepository(store),
		tallyRepo: &flakyTally{TallyRepository: memory.NewTallyRepository(store)},
		publisher: newRecordingPublisher(),
	}
	env.tally = services.NewTallyService(env.pollRepo, env.tallyRepo)
	env.polls = services.NewPollService(env.pollRepo, env.tally, env.publisher)
	env.votes = services.NewVoteService(env.pollRepo, env.voteRepo, env.tally, store, opts...)
	return env
}

func (env *testEnv) createPoll(t *testing.T, creator string, options ...string) *domain.Poll {
	t.Helper()

	poll, err := env.polls.Create(context.Background(), ports.CreatePollInput{
		Title:     "Favourite language?",
		Options:   options,
		CreatorID: creator,
	})
	require.NoError(t, err)
	return poll
}

func (env *testEnv) vote(pollID, optionID uuid.UUID, voter string) domain.VoteOutcome {
	return env.votes.CastVote(context.Background(), ports.VoteInput{
		PollID:   pollID,
		OptionID: optionID,
		VoterID:  voter,
	})
}

// flakyTally fails increments while fail is set.
type flakyTally struct {
	ports.TallyRepository
	fail atomic.Bool
}

var errConnReset = errors.New("connection reset by peer")

func (f *flakyTally) Increment(ctx context.Context, optionID uuid.UUID) error {
	if f.fail.Load() {
		return domain.NewStorageError("increment tally", errConnReset)
	}
	return f.TallyRepository.Increment(ctx, optionID)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.PollClosedEvent
	sent   chan struct{}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{sent: make(chan struct{}, 16)}
}

func (p *recordingPublisher) PublishPollClosed(_ context.Context, event domain.PollClosedEvent) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	p.sent <- struct{}{}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []domain.PollClosedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.PollClosedEvent(nil), p.events...)
}

type stubCache struct {
	voted bool
	err   error
	marks atomic.Int32
}

func (c *stubCache) HasVoted(context.Context, uuid.UUID, string) (bool, error) {
	return c.voted, c.err
}

func (c *stubCache) MarkVoted(context.Context, uuid.UUID, string) error {
	c.marks.Add(1)
	return nil
}
