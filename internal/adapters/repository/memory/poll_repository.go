package memory

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

type pollRepository struct {
	s *Store
}

func NewPollRepository(s *Store) ports.PollRepository {
	return &pollRepository{s: s}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	return r.s.WithinTx(ctx, func(ctx context.Context) error {
		if _, ok := r.s.st.polls[poll.ID]; ok {
			return domain.NewStorageError("save poll", errDuplicateKey)
		}
		labels := make(map[string]struct{}, len(poll.Options))
		for _, opt := range poll.Options {
			if _, dup := labels[opt.Label]; dup {
				return domain.NewStorageError("save poll", errDuplicateKey)
			}
			labels[opt.Label] = struct{}{}
		}

		stored := copyPoll(poll)
		for i := range stored.Options {
			stored.Options[i].VoteCount = 0
		}
		n := len(r.s.st.order)
		r.s.st.polls[poll.ID] = stored
		r.s.st.order = append(r.s.st.order, poll.ID)
		r.s.onRollback(ctx, func() {
			delete(r.s.st.polls, poll.ID)
			r.s.st.order = r.s.st.order[:n]
		})
		return nil
	})
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return copyPoll(p), nil
}

func (r *pollRepository) ListByCreator(ctx context.Context, creatorID string) iter.Seq2[*domain.Poll, error] {
	return func(yield func(*domain.Poll, error) bool) {
		polls := r.byCreator(ctx, creatorID)
		for _, p := range polls {
			if err := ctx.Err(); err != nil {
				yield(nil, domain.NewStorageError("list polls", err))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// byCreator copies the creator's polls out under the lock, newest first.
func (r *pollRepository) byCreator(ctx context.Context, creatorID string) []*domain.Poll {
	defer r.s.lock(ctx)()

	var polls []*domain.Poll
	for i := len(r.s.st.order) - 1; i >= 0; i-- {
		p := r.s.st.polls[r.s.st.order[i]]
		if p.CreatorID == creatorID {
			polls = append(polls, copyPoll(p))
		}
	}
	slices.SortStableFunc(polls, func(a, b *domain.Poll) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return polls
}

func (r *pollRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	defer r.s.lock(ctx)()
	return slices.Clone(r.s.st.order), nil
}

func (r *pollRepository) LockOpen(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.polls[id]
	if !ok {
		return domain.ErrPollNotFound
	}
	if !p.IsOpen() {
		return domain.ErrPollClosed
	}
	return nil
}

func (r *pollRepository) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.polls[id]
	if !ok {
		return domain.ErrPollNotFound
	}
	if !p.IsOpen() {
		return domain.ErrPollClosed
	}
	p.Status = domain.PollStatusClosed
	p.ClosedAt = &closedAt
	r.s.onRollback(ctx, func() {
		p.Status = domain.PollStatusOpen
		p.ClosedAt = nil
	})
	return nil
}
