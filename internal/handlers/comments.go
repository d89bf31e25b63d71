package handlers

import (
	"net/http"
	"strconv"

	"github.com/abrezinsky/ownervote/internal/models"
)

// includeHidden reads the moderator view flag
func includeHidden(r *http.Request) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get("include_hidden"))
	return b
}

func (h *Handlers) handleListComments(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	comments, err := h.Comments.ListComments(r.Context(), voteID, includeHidden(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, comments)
}

func (h *Handlers) handleListReplies(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	commentID, err := parseUUIDParam(r, "commentID")
	if err != nil {
		respondError(w, err)
		return
	}
	replies, err := h.Comments.ListReplies(r.Context(), voteID, commentID, includeHidden(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, replies)
}

func (h *Handlers) handleAddComment(w http.ResponseWriter, r *http.Request) {
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
	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	comment, err := h.Comments.AddComment(r.Context(), models.CreateComment{
		VoteID:    voteID,
		UserID:    userID,
		ParentID:  req.ParentID,
		Content:   req.Content,
		AIConsent: req.AIConsent,
	}, requestMeta(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, comment)
}

func (h *Handlers) handleHideComment(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	commentID, err := parseUUIDParam(r, "commentID")
	if err != nil {
		respondError(w, err)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req HideCommentRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Comments.HideComment(r.Context(), voteID, commentID, userID, req.Reason, requestMeta(r)); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}
