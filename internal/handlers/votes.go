package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/ownervote/internal/models"
)

// ==================== Votes ====================

func (h *Handlers) handleListVotes(w http.ResponseWriter, r *http.Request) {
	var filter models.VoteFilter
	var err error
	if filter.OrganizationID, err = parseUUIDQuery(r, "organization_id"); err != nil {
		respondError(w, err)
		return
	}
	if filter.BuildingID, err = parseUUIDQuery(r, "building_id"); err != nil {
		respondError(w, err)
		return
	}
	if filter.CreatedBy, err = parseUUIDQuery(r, "created_by"); err != nil {
		respondError(w, err)
		return
	}
	if filter.Limit, err = parseIntQuery(r, "limit"); err != nil {
		respondError(w, err)
		return
	}
	if filter.Offset, err = parseIntQuery(r, "offset"); err != nil {
		respondError(w, err)
		return
	}
	for _, raw := range r.URL.Query()["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, models.VoteStatus(s))
			}
		}
	}

	votes, err := h.Votes.ListVotes(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, votes)
}

func (h *Handlers) handleCreateVote(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req models.CreateVote
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	req.CreatedBy = userID

	vote, err := h.Votes.CreatePoll(r.Context(), req, requestMeta(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, vote)
}

func (h *Handlers) handleGetVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	vote, err := h.Votes.GetVote(r.Context(), voteID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, vote)
}

func (h *Handlers) handleUpdateVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	var upd models.UpdateVote
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, err)
		return
	}
	vote, err := h.Votes.UpdateVote(r.Context(), voteID, upd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, vote)
}

func (h *Handlers) handleDeleteVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.Votes.DeleteVote(r.Context(), voteID); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// ==================== Lifecycle ====================

func (h *Handlers) handlePublishVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req PublishRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	vote, err := h.Votes.Publish(r.Context(), voteID, req.StartAt, userID, requestMeta(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, vote)
}

func (h *Handlers) handleCancelVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req CancelRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	vote, err := h.Votes.Cancel(r.Context(), voteID, userID, req.Reason, requestMeta(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, vote)
}

func (h *Handlers) handleCloseVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	vote, results, err := h.Votes.Close(r.Context(), voteID, &userID, requestMeta(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, CloseResponse{Vote: vote, Results: results})
}

// ==================== Questions ====================

func (h *Handlers) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	questions, err := h.Votes.ListQuestions(r.Context(), voteID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, questions)
}

func (h *Handlers) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req models.CreateQuestion
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	q, err := h.Votes.AddQuestion(r.Context(), voteID, req, userID, requestMeta(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, q)
}

func (h *Handlers) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	questionID, err := parseUUIDParam(r, "questionID")
	if err != nil {
		respondError(w, err)
		return
	}
	var upd models.UpdateQuestion
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, err)
		return
	}

	q, err := h.Votes.UpdateQuestion(r.Context(), voteID, questionID, upd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, q)
}

func (h *Handlers) handleRemoveQuestion(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	questionID, err := parseUUIDParam(r, "questionID")
	if err != nil {
		respondError(w, err)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Votes.RemoveQuestion(r.Context(), voteID, questionID, userID, requestMeta(r)); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}
