// Package memory is an in-process store with the same guarantees the
// PostgreSQL adapter gets from the database: atomic transactions, one vote per
// poll and voter, and atomic tally increments. Data lives only as long as the
// process.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
)

type txKey struct{}

type voterKey struct {
	pollID  uuid.UUID
	voterID string
}

type state struct {
	polls  map[uuid.UUID]*domain.Poll
	order  []uuid.UUID
	votes  map[uuid.UUID]domain.Vote
	voters map[voterKey]uuid.UUID
}

type Store struct {
	mu sync.Mutex
	st state
	// undo holds the inverse of every change made by the running transaction.
	undo []func()
}

func NewStore() *Store {
	return &Store{
		st: state{
			polls:  make(map[uuid.UUID]*domain.Poll),
			votes:  make(map[uuid.UUID]domain.Vote),
			voters: make(map[voterKey]uuid.UUID),
		},
	}
}

// WithinTx runs fn holding the store lock. On error every change made by fn
// is undone, newest first.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.undo = s.undo[:0]
	err := fn(context.WithValue(ctx, txKey{}, s))
	if err != nil {
		for i := len(s.undo) - 1; i >= 0; i-- {
			s.undo[i]()
		}
	}
	clear(s.undo)
	s.undo = s.undo[:0]
	return err
}

// onRollback registers the inverse of a change. Outside a transaction the
// change is final and nothing is recorded.
func (s *Store) onRollback(ctx context.Context, undo func()) {
	if s.inTx(ctx) {
		s.undo = append(s.undo, undo)
	}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store lock unless ctx already runs inside WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func copyPoll(p *domain.Poll) *domain.Poll {
	c := *p
	c.Options = slices.Clone(p.Options)
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}
