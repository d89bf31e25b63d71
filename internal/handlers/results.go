package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/abrezinsky/ownervote/internal/errors"
)

// ==================== Results & Reports ====================

func (h *Handlers) handleGetResults(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	results, err := h.Results.GetResults(r.Context(), voteID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, results)
}

func (h *Handlers) handleGetReport(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	report, err := h.Results.GenerateReport(r.Context(), voteID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, report)
}

// ==================== Audit ====================

func (h *Handlers) handleGetAuditLog(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}
	entries, err := h.Audit.GetAuditLog(r.Context(), voteID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, entries)
}

// handleVerifyAuditLog recomputes every entry's hash. A tampered trail is
// reported as 422 with the verification attached.
func (h *Handlers) handleVerifyAuditLog(w http.ResponseWriter, r *http.Request) {
	voteID, err := parseUUIDParam(r, "voteID")
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Audit.VerifyAuditLog(r.Context(), voteID)
	var appErr *errors.Error
	if err != nil && result != nil && stderrors.As(err, &appErr) && appErr.Kind == errors.ErrIntegrity {
		apiErr := ToAPIError(err)
		apiErr.Details = result
		respondError(w, apiErr)
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}
