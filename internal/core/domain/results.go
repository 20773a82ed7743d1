package domain

import (
	"time"

	"github.com/google/uuid"
)

type OptionResult struct {
	OptionID   uuid.UUID `json:"option_id"`
	Label      string    `json:"label"`
	VoteCount  int64     `json:"vote_count"`
	Percentage float64   `json:"percentage"`
}

// PollResults lists option tallies in the poll's stored option order.
type PollResults struct {
	PollID     uuid.UUID      `json:"poll_id"`
	Title      string         `json:"title"`
	Status     PollStatus     `json:"status"`
	TotalVotes int64          `json:"total_votes"`
	Options    []OptionResult `json:"options"`
}

// NewPollResults pairs counts with the poll's options and fills in totals
// and percentages. Options missing from counts are reported with zero votes.
func NewPollResults(poll *Poll, counts []OptionCount) *PollResults {
	byOption := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byOption[c.OptionID] = c.VoteCount
	}

	res := &PollResults{
		PollID:  poll.ID,
		Title:   poll.Title,
		Status:  poll.Status,
		Options: make([]OptionResult, 0, len(poll.Options)),
	}
	for _, opt := range poll.Options {
		n := byOption[opt.ID]
		res.TotalVotes += n
		res.Options = append(res.Options, OptionResult{
			OptionID:  opt.ID,
			Label:     opt.Label,
			VoteCount: n,
		})
	}
	if res.TotalVotes > 0 {
		for i := range res.Options {
			res.Options[i].Percentage = float64(res.Options[i].VoteCount) / float64(res.TotalVotes) * 100
		}
	}
	return res
}

// Counts returns the label to vote count mapping.
func (r *PollResults) Counts() map[string]int64 {
	m := make(map[string]int64, len(r.Options))
	for _, o := range r.Options {
		m[o.Label] = o.VoteCount
	}
	return m
}

type OptionCount struct {
	OptionID  uuid.UUID
	Label     string
	VoteCount int64
}

// OptionTally holds both views of an option's count: the materialized
// counter and the number of ledger rows referencing the option.
type OptionTally struct {
	OptionID     uuid.UUID `json:"option_id"`
	Label        string    `json:"label"`
	Materialized int64     `json:"materialized"`
	Ledger       int64     `json:"ledger"`
}

func (t OptionTally) Consistent() bool {
	return t.Materialized == t.Ledger
}

type TallyAudit struct {
	PollID    uuid.UUID     `json:"poll_id"`
	Drift     []OptionTally `json:"drift,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (a *TallyAudit) Consistent() bool {
	return len(a.Drift) == 0
}
