package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/pollvote/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError maps domain errors onto status codes. Storage details are
// logged, never written to the client.
func writeError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		http.Error(w, vErr.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidPollID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrPollNotFound), errors.Is(err, domain.ErrVoteNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNotPollOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrPollClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrStorage):
		slog.Error("storage failure", "error", err)
		http.Error(w, domain.ErrStorage.Error(), http.StatusServiceUnavailable)
	default:
		slog.Error("unexpected error", "error", err)
		http.Error(w, domain.ErrInternal.Error(), http.StatusInternalServerError)
	}
}

func outcomeStatus(reason domain.VoteRejection) int {
	switch reason {
	case domain.RejectionNone:
		return http.StatusCreated
	case domain.RejectionAlreadyVoted:
		return http.StatusConflict
	case domain.RejectionPollClosed:
		return http.StatusForbidden
	case domain.RejectionPollNotFound:
		return http.StatusNotFound
	case domain.RejectionOptionNotFound, domain.RejectionInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}
