package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/pollvote/internal/core/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishPollClosed(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	pollID := uuid.New()
	event := domain.PollClosedEvent{
		PollID:    pollID,
		Title:     "Lunch?",
		CreatorID: "alice",
		ClosedAt:  time.Now().UTC(),
		Results: &domain.PollResults{
			PollID:     pollID,
			TotalVotes: 3,
		},
	}
	require.NoError(t, p.PublishPollClosed(context.Background(), event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, pollID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event", msg.Headers[0].Key)
	assert.Equal(t, EventPollClosed, string(msg.Headers[0].Value))

	var got domain.PollClosedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, pollID, got.PollID)
	assert.Equal(t, "alice", got.CreatorID)
	require.NotNil(t, got.Results)
	assert.Equal(t, int64(3), got.Results.TotalVotes)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishPollClosed_WriteError(t *testing.T) {
	brokerDown := errors.New("broker unreachable")
	p := &Publisher{writer: &fakeWriter{err: brokerDown}}

	err := p.PublishPollClosed(context.Background(), domain.PollClosedEvent{PollID: uuid.New()})
	assert.ErrorIs(t, err, brokerDown)
}
