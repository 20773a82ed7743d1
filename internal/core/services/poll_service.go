package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

const notifyTimeout = 10 * time.Second

type pollService struct {
	repo      ports.PollRepository
	tally     ports.TallyService
	publisher ports.PollEventPublisher
	now       func() time.Time
}

func NewPollService(repo ports.PollRepository, tally ports.TallyService, publisher ports.PollEventPublisher) ports.PollService {
	return &pollService{
		repo:      repo,
		tally:     tally,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.NewValidationError("title", "title is required")
	}
	creatorID := strings.TrimSpace(input.CreatorID)
	if creatorID == "" {
		return nil, domain.NewValidationError("creator_id", "creator is required")
	}

	labels, err := normalizeOptions(input.Options)
	if err != nil {
		return nil, err
	}

	pollID := uuid.New()
	now := s.now().UTC()

	poll := &domain.Poll{
		ID:        pollID,
		Title:     title,
		CreatorID: creatorID,
		Status:    domain.PollStatusOpen,
		CreatedAt: now,
		Options:   make([]domain.PollOption, 0, len(labels)),
	}
	for i, label := range labels {
		poll.Options = append(poll.Options, domain.PollOption{
			ID:        uuid.New(),
			PollID:    pollID,
			Label:     label,
			Position:  i,
			CreatedAt: now,
		})
	}

	if err := s.repo.Save(ctx, poll); err != nil {
		slog.Error("failed to save poll", "poll_id", pollID, "error", err)
		return nil, err
	}

	slog.Info("poll created", "poll_id", pollID, "creator_id", creatorID, "options", len(labels))
	return poll, nil
}

// normalizeOptions trims labels, drops empty ones and rejects duplicates.
func normalizeOptions(options []string) ([]string, error) {
	labels := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		label := strings.TrimSpace(opt)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			return nil, domain.NewValidationError("options", fmt.Sprintf("duplicate option %q", label))
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	if len(labels) < 2 {
		return nil, domain.NewValidationError("options", "at least two non-empty options are required")
	}
	return labels, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	pollID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrInvalidPollID
	}

	return s.repo.GetByID(ctx, pollID)
}

func (s *pollService) GetUserPolls(ctx context.Context, creatorID string) iter.Seq2[*domain.Poll, error] {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return func(yield func(*domain.Poll, error) bool) {}
	}
	return s.repo.ListByCreator(ctx, creatorID)
}

func (s *pollService) GetResults(ctx context.Context, id uuid.UUID) (*domain.PollResults, error) {
	poll, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.tally.Counts(ctx, poll.ID)
	if err != nil {
		return nil, err
	}

	return domain.NewPollResults(poll, counts), nil
}

func (s *pollService) ClosePoll(ctx context.Context, input ports.ClosePollInput) (*domain.Poll, error) {
	poll, err := s.repo.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}
	if poll.CreatorID != input.RequesterID {
		return nil, domain.ErrNotPollOwner
	}
	if !poll.IsOpen() {
		return nil, domain.ErrPollClosed
	}

	closedAt := s.now().UTC()
	if err := s.repo.Close(ctx, poll.ID, closedAt); err != nil {
		return nil, err
	}
	poll.Status = domain.PollStatusClosed
	poll.ClosedAt = &closedAt

	slog.Info("poll closed", "poll_id", poll.ID)

	event := domain.PollClosedEvent{
		PollID:    poll.ID,
		Title:     poll.Title,
		CreatorID: poll.CreatorID,
		ClosedAt:  closedAt,
	}
	if results, err := s.GetResults(ctx, poll.ID); err == nil {
		event.Results = results
	} else {
		slog.Warn("closing notification sent without results", "poll_id", poll.ID, "error", err)
	}
	s.notifyClosed(event)

	return poll, nil
}

// notifyClosed hands the event to the publisher without waiting for it.
func (s *pollService) notifyClosed(event domain.PollClosedEvent) {
	if s.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.publisher.PublishPollClosed(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("failed to publish poll closed event", "poll_id", event.PollID, "error", err)
		}
	}()
}
