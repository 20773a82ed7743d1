package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
)

type TallyRepository interface {
	// Increment adds one to the option's materialized count in a single
	// store operation.
	Increment(ctx context.Context, optionID uuid.UUID) error
	Counts(ctx context.Context, pollID uuid.UUID) ([]domain.OptionCount, error)
	// Snapshot reads materialized counts and the live COUNT(*) over votes at
	// the same instant.
	Snapshot(ctx context.Context, pollID uuid.UUID) ([]domain.OptionTally, error)
	Reconcile(ctx context.Context, pollID uuid.UUID) error
}

type TallyService interface {
	Increment(ctx context.Context, optionID uuid.UUID) error
	Counts(ctx context.Context, pollID uuid.UUID) ([]domain.OptionCount, error)
	Audit(ctx context.Context, pollID uuid.UUID) (*domain.TallyAudit, error)
	AuditAll(ctx context.Context) ([]*domain.TallyAudit, error)
	Reconcile(ctx context.Context, pollID uuid.UUID) error
}
