package domain

import (
	"time"

	"github.com/google/uuid"
)

// PollClosedEvent is handed to the notification service once a poll closes.
type PollClosedEvent struct {
	PollID    uuid.UUID    `json:"poll_id"`
	Title     string       `json:"title"`
	CreatorID string       `json:"creator_id"`
	ClosedAt  time.Time    `json:"closed_at"`
	Results   *PollResults `json:"results,omitempty"`
}
