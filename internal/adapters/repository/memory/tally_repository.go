package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

type tallyRepository struct {
	s *Store
}

func NewTallyRepository(s *Store) ports.TallyRepository {
	return &tallyRepository{s: s}
}

func (r *tallyRepository) Increment(ctx context.Context, optionID uuid.UUID) error {
	defer r.s.lock(ctx)()

	for _, p := range r.s.st.polls {
		for i := range p.Options {
			if p.Options[i].ID == optionID {
				opt := &p.Options[i]
				opt.VoteCount++
				r.s.onRollback(ctx, func() { opt.VoteCount-- })
				return nil
			}
		}
	}
	return domain.ErrOptionNotFound
}

func (r *tallyRepository) Counts(ctx context.Context, pollID uuid.UUID) ([]domain.OptionCount, error) {
	tallies, err := r.Snapshot(ctx, pollID)
	if err != nil {
		return nil, err
	}
	counts := make([]domain.OptionCount, len(tallies))
	for i, t := range tallies {
		counts[i] = domain.OptionCount{OptionID: t.OptionID, Label: t.Label, VoteCount: t.Materialized}
	}
	return counts, nil
}

func (r *tallyRepository) Snapshot(ctx context.Context, pollID uuid.UUID) ([]domain.OptionTally, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.polls[pollID]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	ledger := r.ledgerCounts(pollID)

	tallies := make([]domain.OptionTally, 0, len(p.Options))
	for _, opt := range p.Options {
		tallies = append(tallies, domain.OptionTally{
			OptionID:     opt.ID,
			Label:        opt.Label,
			Materialized: opt.VoteCount,
			Ledger:       ledger[opt.ID],
		})
	}
	return tallies, nil
}

func (r *tallyRepository) Reconcile(ctx context.Context, pollID uuid.UUID) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.polls[pollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	ledger := r.ledgerCounts(pollID)
	previous := make([]int64, len(p.Options))
	for i := range p.Options {
		previous[i] = p.Options[i].VoteCount
		p.Options[i].VoteCount = ledger[p.Options[i].ID]
	}
	r.s.onRollback(ctx, func() {
		for i := range p.Options {
			p.Options[i].VoteCount = previous[i]
		}
	})
	return nil
}

// ledgerCounts must be called with the store lock held.
func (r *tallyRepository) ledgerCounts(pollID uuid.UUID) map[uuid.UUID]int64 {
	counts := make(map[uuid.UUID]int64)
	for _, v := range r.s.st.votes {
		if v.PollID == pollID {
			counts[v.OptionID]++
		}
	}
	return counts
}
