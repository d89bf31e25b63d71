package handlers

import (
	"net/http"
)

// ==================== Health ====================

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	respondOK(w, resp)
}

// ==================== Lifecycle Sweep ====================

// handleSweep runs activation and expiry immediately instead of waiting for
// the scheduler's next tick
func (h *Handlers) handleSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.Votes.Sweep(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// ==================== Membership ====================

func (h *Handlers) handleSyncBuilding(w http.ResponseWriter, r *http.Request) {
	buildingID, err := parseUUIDParam(r, "buildingID")
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.Membership.SyncBuilding(r.Context(), buildingID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// ==================== Counters ====================

func (h *Handlers) handleCountByOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, err := parseUUIDParam(r, "organizationID")
	if err != nil {
		respondError(w, err)
		return
	}
	n, err := h.Votes.CountByOrganization(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, CountResponse{Count: n})
}

func (h *Handlers) handleCountActiveByBuilding(w http.ResponseWriter, r *http.Request) {
	buildingID, err := parseUUIDParam(r, "buildingID")
	if err != nil {
		respondError(w, err)
		return
	}
	n, err := h.Votes.CountActiveByBuilding(r.Context(), buildingID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, CountResponse{Count: n})
}
