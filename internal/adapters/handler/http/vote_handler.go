package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	OptionID uuid.UUID `json:"option_id"`
}

// VoteOnPoll godoc
// @Summary      Casts the authenticated user's vote
// @Description  The body is always the vote outcome. A second vote on the same poll is answered with 409 and reason already_voted.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400
// @Failure      403
// @Failure      404
// @Failure      409
// @Failure      503
// @Router       /api/polls/{id}/votes [post]
func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	outcome := h.service.CastVote(r.Context(), ports.VoteInput{
		PollID:   pollID,
		OptionID: req.OptionID,
		VoterID:  userID,
	})

	writeJSON(w, outcomeStatus(outcome.Reason), outcome)
}

func (h *VoteHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, domain.ErrInvalidPollID.Error(), http.StatusBadRequest)
		return
	}

	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	vote, err := h.service.GetVote(r.Context(), pollID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vote)
}
