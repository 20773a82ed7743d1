package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPollResults(t *testing.T) {
	poll := &Poll{
		ID:     uuid.New(),
		Title:  "Pets",
		Status: PollStatusOpen,
		Options: []PollOption{
			{ID: uuid.New(), Label: "Cats", Position: 0},
			{ID: uuid.New(), Label: "Dogs", Position: 1},
			{ID: uuid.New(), Label: "Fish", Position: 2},
		},
	}
	counts := []OptionCount{
		{OptionID: poll.Options[1].ID, Label: "Dogs", VoteCount: 3},
		{OptionID: poll.Options[0].ID, Label: "Cats", VoteCount: 1},
	}

	res := NewPollResults(poll, counts)
	assert.Equal(t, int64(4), res.TotalVotes)
	require.Len(t, res.Options, 3)

	assert.Equal(t, "Cats", res.Options[0].Label, "results follow option order")
	assert.InDelta(t, 25.0, res.Options[0].Percentage, 0.001)
	assert.InDelta(t, 75.0, res.Options[1].Percentage, 0.001)
	assert.Zero(t, res.Options[2].VoteCount)
	assert.Equal(t, map[string]int64{"Cats": 1, "Dogs": 3, "Fish": 0}, res.Counts())
}

func TestNewPollResults_NoVotes(t *testing.T) {
	poll := &Poll{ID: uuid.New(), Options: []PollOption{{ID: uuid.New(), Label: "A"}, {ID: uuid.New(), Label: "B"}}}

	res := NewPollResults(poll, nil)
	assert.Zero(t, res.TotalVotes)
	for _, o := range res.Options {
		assert.Zero(t, o.Percentage)
	}
}

func TestRejectionFor(t *testing.T) {
	tests := []struct {
		err  error
		want VoteRejection
	}{
		{nil, RejectionNone},
		{fmt.Errorf("insert: %w", ErrAlreadyVoted), RejectionAlreadyVoted},
		{ErrPollClosed, RejectionPollClosed},
		{ErrPollNotFound, RejectionPollNotFound},
		{ErrOptionNotFound, RejectionOptionNotFound},
		{NewValidationError("voter_id", "required"), RejectionInvalidInput},
		{NewStorageError("save vote", errors.New("connection refused")), RejectionStorageError},
		{errors.New("something else"), RejectionStorageError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RejectionFor(tt.err), "%v", tt.err)
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("pq: password authentication failed for user \"poll\"")
	err := fmt.Errorf("failed to create poll: %w", NewStorageError("save poll", cause))

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "password", "store diagnostics stay out of the message")

	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "save poll", sErr.Op)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("options", "at least two options are required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "options")
}

func TestTallyAudit(t *testing.T) {
	ok := OptionTally{Materialized: 2, Ledger: 2}
	drift := OptionTally{Materialized: 3, Ledger: 2}
	assert.True(t, ok.Consistent())
	assert.False(t, drift.Consistent())

	assert.True(t, (&TallyAudit{}).Consistent())
	assert.False(t, (&TallyAudit{Drift: []OptionTally{drift}}).Consistent())
}

func TestPoll_Option(t *testing.T) {
	id := uuid.New()
	poll := &Poll{Status: PollStatusOpen, Options: []PollOption{{ID: id, Label: "A"}}}

	opt, ok := poll.Option(id)
	assert.True(t, ok)
	assert.Equal(t, "A", opt.Label)

	_, ok = poll.Option(uuid.New())
	assert.False(t, ok)
	assert.True(t, poll.IsOpen())
	assert.False(t, PollStatus("archived").Valid())
}
