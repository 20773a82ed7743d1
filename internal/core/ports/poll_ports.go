package ports

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
)

type PollRepository interface {
	// Save stores the poll and all of its options as one unit.
	Save(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	// ListByCreator streams the creator's polls, newest first.
	ListByCreator(ctx context.Context, creatorID string) iter.Seq2[*domain.Poll, error]
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	// LockOpen holds the poll row for the rest of the surrounding
	// transaction and fails with ErrPollClosed unless the poll is open.
	LockOpen(ctx context.Context, id uuid.UUID) error
	Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error
}

type CreatePollInput struct {
	Title     string
	Options   []string
	CreatorID string
}

type ClosePollInput struct {
	PollID      uuid.UUID
	RequesterID string
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	GetUserPolls(ctx context.Context, creatorID string) iter.Seq2[*domain.Poll, error]
	GetResults(ctx context.Context, id uuid.UUID) (*domain.PollResults, error)
	ClosePoll(ctx context.Context, input ClosePollInput) (*domain.Poll, error)
}

// PollEventPublisher delivers poll lifecycle events to the notification
// service.
type PollEventPublisher interface {
	PublishPollClosed(ctx context.Context, event domain.PollClosedEvent) error
	Close() error
}
