package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	r.Get("/healthz", h.handleHealth)

	// WebSocket feed, outside the timeout middleware
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/api/votes", func(r chi.Router) {
			r.Get("/", h.handleListVotes)
			r.Post("/", h.handleCreateVote)

			r.Route("/{voteID}", func(r chi.Router) {
				r.Get("/", h.handleGetVote)
				r.Patch("/", h.handleUpdateVote)
				r.Delete("/", h.handleDeleteVote)

				// Lifecycle
				r.Post("/publish", h.handlePublishVote)
				r.Post("/cancel", h.handleCancelVote)
				r.Post("/close", h.handleCloseVote)

				// Questions
				r.Get("/questions", h.handleListQuestions)
				r.Post("/questions", h.handleAddQuestion)
				r.Patch("/questions/{questionID}", h.handleUpdateQuestion)
				r.Delete("/questions/{questionID}", h.handleRemoveQuestion)

				// Ballots
				r.Get("/eligibility", h.handleCheckEligibility)
				r.Post("/ballots", h.handleCastVote)
				r.Get("/ballots/{unitID}", h.handleGetBallot)
				r.Get("/receipts/{unitID}/qr", h.handleReceiptQR)

				// Results & audit
				r.Get("/results", h.handleGetResults)
				r.Get("/report", h.handleGetReport)
				r.Get("/audit", h.handleGetAuditLog)
				r.Get("/audit/verify", h.handleVerifyAuditLog)

				// Discussion
				r.Get("/comments", h.handleListComments)
				r.Post("/comments", h.handleAddComment)
				r.Get("/comments/{commentID}/replies", h.handleListReplies)
				r.Post("/comments/{commentID}/hide", h.handleHideComment)
			})
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(h.AdminAuth.RequireAuthAPI)
			r.Post("/sweep", h.handleSweep)
			r.Post("/buildings/{buildingID}/sync", h.handleSyncBuilding)
			r.Get("/organizations/{organizationID}/vote-count", h.handleCountByOrganization)
			r.Get("/buildings/{buildingID}/active-vote-count", h.handleCountActiveByBuilding)
		})
	})

	return r
}
