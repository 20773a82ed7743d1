package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrPollNotFound    = errors.New("poll not found")
	ErrInvalidPollID   = errors.New("invalid poll id")
	ErrOptionNotFound  = errors.New("option does not belong to this poll")
	ErrPollClosed      = errors.New("poll is closed")
	ErrAlreadyVoted    = errors.New("user has already voted")
	ErrVoteNotFound    = errors.New("user did not vote on this poll")
	ErrNotPollOwner    = errors.New("only the poll creator can do this")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrStorage         = errors.New("storage unavailable")
	ErrInternal        = errors.New("internal server error")
)

// ValidationError reports bad caller input. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a store fault. Error() stays generic so the message can
// be handed to clients; the underlying error is available through Unwrap for
// logging.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, ErrStorage)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
