package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

const EventPollClosed = "poll.closed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher sends poll events keyed by poll id, so every event of a poll
// lands on the same partition.
type Publisher struct {
	writer messageWriter
}

var _ ports.PollEventPublisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  5,
		Compression:  kafkago.Snappy,
	}

	return &Publisher{writer: w}
}

func (p *Publisher) PublishPollClosed(ctx context.Context, event domain.PollClosedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal poll closed event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.PollID.String()),
		Value: body,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(EventPollClosed)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
