package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Votes are append-only: once stored they are never updated or deleted.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	OptionID  uuid.UUID `json:"option_id"`
	VoterID   string    `json:"voter_id"`
	CreatedAt time.Time `json:"created_at"`
}

type VoteRejection string

const (
	RejectionNone           VoteRejection = ""
	RejectionAlreadyVoted   VoteRejection = "already_voted"
	RejectionPollClosed     VoteRejection = "poll_closed"
	RejectionPollNotFound   VoteRejection = "poll_not_found"
	RejectionOptionNotFound VoteRejection = "option_not_found"
	RejectionInvalidInput   VoteRejection = "invalid_input"
	RejectionStorageError   VoteRejection = "storage_error"
)

// VoteOutcome is the result of casting a vote. Rejections are ordinary
// values; Err only carries diagnostics for logs.
type VoteOutcome struct {
	Success bool          `json:"success"`
	Reason  VoteRejection `json:"reason,omitempty"`
	Vote    *Vote         `json:"vote,omitempty"`
	Err     error         `json:"-"`
}

func Accepted(v *Vote) VoteOutcome {
	return VoteOutcome{Success: true, Vote: v}
}

func Rejected(reason VoteRejection, err error) VoteOutcome {
	return VoteOutcome{Reason: reason, Err: err}
}

// RejectionFor maps a ledger error onto the rejection reported to callers.
// Anything unrecognised is treated as a storage fault.
func RejectionFor(err error) VoteRejection {
	switch {
	case err == nil:
		return RejectionNone
	case errors.Is(err, ErrAlreadyVoted):
		return RejectionAlreadyVoted
	case errors.Is(err, ErrPollClosed):
		return RejectionPollClosed
	case errors.Is(err, ErrPollNotFound):
		return RejectionPollNotFound
	case errors.Is(err, ErrOptionNotFound):
		return RejectionOptionNotFound
	case errors.Is(err, ErrValidation):
		return RejectionInvalidInput
	default:
		return RejectionStorageError
	}
}
