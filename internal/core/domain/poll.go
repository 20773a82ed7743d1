package domain

import (
	"time"

	"github.com/google/uuid"
)

type PollStatus string

const (
	PollStatusOpen   PollStatus = "open"
	PollStatusClosed PollStatus = "closed"
)

func (s PollStatus) Valid() bool {
	return s == PollStatusOpen || s == PollStatusClosed
}

type Poll struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	CreatorID string       `json:"creator_id"`
	Status    PollStatus   `json:"status"`
	Options   []PollOption `json:"options"`
	CreatedAt time.Time    `json:"created_at"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
}

func (p *Poll) IsOpen() bool {
	return p.Status == PollStatusOpen
}

// Option returns the option with the given id, or false when it does not
// belong to the poll.
func (p *Poll) Option(id uuid.UUID) (PollOption, bool) {
	for _, opt := range p.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return PollOption{}, false
}

type PollOption struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	Label     string    `json:"label"`
	Position  int       `json:"position"`
	VoteCount int64     `json:"vote_count"`
	CreatedAt time.Time `json:"created_at"`
}
