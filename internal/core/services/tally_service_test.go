package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/pollvote/internal/core/domain"
)

func TestTallyAudit_DetectsAndRepairsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	poll := env.createPoll(t, "alice", "A", "B")
	clean := env.createPoll(t, "bob", "C", "D")

	require.True(t, env.vote(poll.ID, poll.Options[0].ID, "v1").Success)
	require.True(t, env.vote(clean.ID, clean.Options[1].ID, "v1").Success)

	// A bare increment without a ledger row is exactly the drift the audit looks for.
	require.NoError(t, env.tally.Increment(ctx, poll.Options[1].ID))

	audits, err := env.tally.AuditAll(ctx)
	require.NoError(t, err)
	require.Len(t, audits, 2)

	byPoll := map[uuid.UUID]*domain.TallyAudit{}
	for _, a := range audits {
		byPoll[a.PollID] = a
	}
	assert.True(t, byPoll[clean.ID].Consistent())

	drifted := byPoll[poll.ID]
	require.False(t, drifted.Consistent())
	require.Len(t, drifted.Drift, 1)
	assert.Equal(t, poll.Options[1].ID, drifted.Drift[0].OptionID)
	assert.Equal(t, int64(1), drifted.Drift[0].Materialized)
	assert.Equal(t, int64(0), drifted.Drift[0].Ledger)

	require.NoError(t, env.tally.Reconcile(ctx, poll.ID))

	audit, err := env.tally.Audit(ctx, poll.ID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent())

	counts, err := env.tally.Counts(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, int64(1), counts[0].VoteCount)
	assert.Equal(t, int64(0), counts[1].VoteCount)
}

func TestTally_UnknownPollAndOption(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tally.Audit(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrPollNotFound)

	_, err = env.tally.Counts(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrPollNotFound)

	assert.ErrorIs(t, env.tally.Increment(ctx, uuid.New()), domain.ErrOptionNotFound)
}
