package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/pollvote/internal/core/domain"
)

func testPoll(labels ...string) *domain.Poll {
	poll := &domain.Poll{
		ID:        uuid.New(),
		Title:     "Q",
		CreatorID: "alice",
		Status:    domain.PollStatusOpen,
		CreatedAt: time.Now(),
	}
	for i, l := range labels {
		poll.Options = append(poll.Options, domain.PollOption{ID: uuid.New(), PollID: poll.ID, Label: l, Position: i})
	}
	return poll
}

func TestWithinTx_RollsBack(t *testing.T) {
	s := NewStore()
	polls, votes, tally := NewPollRepository(s), NewVoteRepository(s), NewTallyRepository(s)
	ctx := context.Background()

	poll := testPoll("A", "B")
	require.NoError(t, polls.Save(ctx, poll))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		vote := &domain.Vote{ID: uuid.New(), PollID: poll.ID, OptionID: poll.Options[0].ID, VoterID: "v"}
		if err := votes.SaveVote(ctx, vote); err != nil {
			return err
		}
		if err := tally.Increment(ctx, vote.OptionID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	voted, err := votes.HasVoted(ctx, poll.ID, "v")
	require.NoError(t, err)
	assert.False(t, voted)

	counts, err := tally.Counts(ctx, poll.ID)
	require.NoError(t, err)
	assert.Zero(t, counts[0].VoteCount)
}

func TestSaveVote_Constraints(t *testing.T) {
	s := NewStore()
	polls, votes := NewPollRepository(s), NewVoteRepository(s)
	ctx := context.Background()

	poll, other := testPoll("A", "B"), testPoll("C", "D")
	require.NoError(t, polls.Save(ctx, poll))
	require.NoError(t, polls.Save(ctx, other))

	vote := func(optionID uuid.UUID, voter string) error {
		return votes.SaveVote(ctx, &domain.Vote{ID: uuid.New(), PollID: poll.ID, OptionID: optionID, VoterID: voter})
	}

	require.NoError(t, vote(poll.Options[0].ID, "v"))
	assert.ErrorIs(t, vote(poll.Options[1].ID, "v"), domain.ErrAlreadyVoted)
	assert.ErrorIs(t, vote(other.Options[0].ID, "w"), domain.ErrOptionNotFound)
}

func TestGetByID_ReturnsCopies(t *testing.T) {
	s := NewStore()
	polls := NewPollRepository(s)
	ctx := context.Background()

	poll := testPoll("A", "B")
	require.NoError(t, polls.Save(ctx, poll))

	got, err := polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	got.Options[0].Label = "changed"
	got.Status = domain.PollStatusClosed

	again, err := polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Options[0].Label)
	assert.True(t, again.IsOpen())
}

func TestWithinTx_UndoesEveryChange(t *testing.T) {
	s := NewStore()
	polls, votes, tally := NewPollRepository(s), NewVoteRepository(s), NewTallyRepository(s)
	ctx := context.Background()

	kept := testPoll("A", "B")
	require.NoError(t, polls.Save(ctx, kept))
	require.NoError(t, votes.SaveVote(ctx, &domain.Vote{ID: uuid.New(), PollID: kept.ID, OptionID: kept.Options[1].ID, VoterID: "v"}))
	require.NoError(t, tally.Increment(ctx, kept.Options[1].ID))
	require.NoError(t, tally.Increment(ctx, kept.Options[0].ID)) // drift for Reconcile to touch

	created := testPoll("C", "D")
	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, polls.Save(ctx, created))
		require.NoError(t, votes.SaveVote(ctx, &domain.Vote{ID: uuid.New(), PollID: kept.ID, OptionID: kept.Options[0].ID, VoterID: "w"}))
		require.NoError(t, tally.Increment(ctx, kept.Options[0].ID))
		require.NoError(t, tally.Reconcile(ctx, kept.ID))
		require.NoError(t, polls.Close(ctx, kept.ID, time.Now()))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = polls.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
	ids, err := polls.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{kept.ID}, ids)

	got, err := polls.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOpen())
	assert.Nil(t, got.ClosedAt)

	voted, err := votes.HasVoted(ctx, kept.ID, "w")
	require.NoError(t, err)
	assert.False(t, voted)

	snapshot, err := tally.Snapshot(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot[0].Materialized, "drift survives a rolled back repair")
	assert.Equal(t, int64(1), snapshot[1].Materialized)

	// A later transaction must not replay the discarded undo entries.
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context) error {
		return tally.Increment(ctx, kept.Options[1].ID)
	}))
	assert.ErrorIs(t, s.WithinTx(ctx, func(context.Context) error { return boom }), boom)

	snapshot, err = tally.Snapshot(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snapshot[1].Materialized)
}
