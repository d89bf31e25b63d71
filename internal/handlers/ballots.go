package handlers

import (
	"net/http"

	"github.com/abrezinsky/ownervote/internal/models"
)

func (h *Handlers) handleCheckEligibility(w http.ResponseWriter, r *http.Request) {
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

	eligibility, err := h.Ballots.CheckEligibility(r.Context(), voteID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, eligibility)
}

func (h *Handlers) handleCastVote(w http.ResponseWriter, r *http.Request) {
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
	var req CastVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	receipt, err := h.Ballots.CastVote(r.Context(), models.CastVote{
		VoteID:       voteID,
		UserID:       userID,
		UnitID:       req.UnitID,
		DelegationID: req.DelegationID,
		Answers:      req.Answers,
	}, requestMeta(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, receipt)
}

func (h *Handlers) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	unitID, err := parseUUIDParam(r, "unitID")
	if err != nil {
		respondError(w, err)
		return
	}

	ballot, err := h.Ballots.GetBallot(r.Context(), voteID, unitID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ballot)
}

// handleReceiptQR returns the PNG QR code of a unit's ballot receipt
func (h *Handlers) handleReceiptQR(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	unitID, err := parseUUIDParam(r, "unitID")
	if err != nil {
		respondError(w, err)
		return
	}

	png, err := h.Ballots.ReceiptQR(r.Context(), voteID, unitID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(png)
}
