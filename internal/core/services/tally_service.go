package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

const auditConcurrency = 8

type tallyService struct {
	pollRepo  ports.PollRepository
	tallyRepo ports.TallyRepository
}

func NewTallyService(pollRepo ports.PollRepository, tallyRepo ports.TallyRepository) ports.TallyService {
	return &tallyService{
		pollRepo:  pollRepo,
		tallyRepo: tallyRepo,
	}
}

func (s *tallyService) Increment(ctx context.Context, optionID uuid.UUID) error {
	return s.tallyRepo.Increment(ctx, optionID)
}

// Counts returns the materialized counts, which are authoritative.
func (s *tallyService) Counts(ctx context.Context, pollID uuid.UUID) ([]domain.OptionCount, error) {
	return s.tallyRepo.Counts(ctx, pollID)
}

func (s *tallyService) Audit(ctx context.Context, pollID uuid.UUID) (*domain.TallyAudit, error) {
	tallies, err := s.tallyRepo.Snapshot(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to audit poll %s: %w", pollID, err)
	}

	audit := &domain.TallyAudit{PollID: pollID, CheckedAt: time.Now().UTC()}
	for _, t := range tallies {
		if !t.Consistent() {
			audit.Drift = append(audit.Drift, t)
		}
	}
	return audit, nil
}

func (s *tallyService) AuditAll(ctx context.Context) ([]*domain.TallyAudit, error) {
	ids, err := s.pollRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch all polls: %w", err)
	}

	audits := make([]*domain.TallyAudit, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(auditConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			audit, err := s.Audit(ctx, id)
			if err != nil {
				return err
			}
			audits[i] = audit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return audits, nil
}

func (s *tallyService) Reconcile(ctx context.Context, pollID uuid.UUID) error {
	if err := s.tallyRepo.Reconcile(ctx, pollID); err != nil {
		return fmt.Errorf("failed to reconcile poll %s: %w", pollID, err)
	}
	return nil
}
