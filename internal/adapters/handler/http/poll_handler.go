package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

const maxListedPolls = 100

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type createPollRequest struct {
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Creates the poll and its options in one step. The authenticated user becomes the creator.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400
// @Failure      401
// @Router       /api/polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := ports.CreatePollInput{
		Title:     req.Title,
		Options:   req.Options,
		CreatorID: userID,
	}

	poll, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, poll)
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing poll id", http.StatusBadRequest)
		return
	}

	poll, err := h.service.GetPoll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

// GetResults godoc
// @Summary      Returns the vote counts of a poll
// @Description  Counts are listed in the poll's option order, with percentages of the total.
// @Tags         polls
// @Produce      json
// @Success      200
// @Failure      404
// @Router       /api/polls/{id}/results [get]
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, domain.ErrInvalidPollID.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.service.GetResults(r.Context(), pollID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// ListMyPolls returns the authenticated user's polls, newest first. The
// optional limit query parameter caps the page size.
func (h *PollHandler) ListMyPolls(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	limit := maxListedPolls
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListedPolls)
	}

	polls := make([]*domain.Poll, 0)
	for poll, err := range h.service.GetUserPolls(r.Context(), userID) {
		if err != nil {
			writeError(w, err)
			return
		}
		polls = append(polls, poll)
		if len(polls) == limit {
			break
		}
	}

	writeJSON(w, http.StatusOK, polls)
}

// ClosePoll godoc
// @Summary      Closes a poll
// @Description  Only the creator can close a poll. Closed polls reject new votes.
// @Tags         polls
// @Produce      json
// @Success      200
// @Failure      403
// @Failure      404
// @Failure      409
// @Router       /api/polls/{id}/close [post]
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, domain.ErrInvalidPollID.Error(), http.StatusBadRequest)
		return
	}

	poll, err := h.service.ClosePoll(r.Context(), ports.ClosePollInput{PollID: pollID, RequesterID: userID})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}
