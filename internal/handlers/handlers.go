package handlers

import (
	"context"
	"net/http"

	"github.com/abrezinsky/ownervote/internal/auth"
	"github.com/abrezinsky/ownervote/internal/services"
)

// Broadcast is the live feed endpoint; the websocket hub provides it
type Broadcast interface {
	ServeWs(w http.ResponseWriter, r *http.Request)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Votes      services.VoteServicer
	Ballots    services.BallotServicer
	Results    services.ResultsServicer
	Audit      services.AuditServicer
	Comments   services.CommentServicer
	Membership services.MembershipServicer
	Hub        Broadcast
	DB         Pinger
	Log        HTTPLogger
	AdminAuth  *auth.Auth
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	votes services.VoteServicer,
	ballots services.BallotServicer,
	results services.ResultsServicer,
	audit services.AuditServicer,
	comments services.CommentServicer,
	membership services.MembershipServicer,
	hub Broadcast,
	db Pinger,
	log HTTPLogger,
) *Handlers {
	return &Handlers{
		Votes:      votes,
		Ballots:    ballots,
		Results:    results,
		Audit:      audit,
		Comments:   comments,
		Membership: membership,
		Hub:        hub,
		DB:         db,
		Log:        log,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// SetAdminAuth guards the /api/admin routes; nil leaves them open
func (h *Handlers) SetAdminAuth(a *auth.Auth) {
	h.AdminAuth = a
}
