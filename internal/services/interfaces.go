package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
)

// Clock returns the current time. Services take one so tests can pin time.
type Clock func() time.Time

// Broadcaster defines the interface for broadcasting vote events to clients
type Broadcaster interface {
	BroadcastVoteStatus(vote *models.Vote)
	BroadcastParticipation(voteID uuid.UUID, participation, eligible int)
	BroadcastResults(results *models.Results)
}

// VoteServicer defines the interface for vote lifecycle operations
type VoteServicer interface {
	CreatePoll(ctx context.Context, req models.CreateVote, meta models.RequestMeta) (*models.Vote, error)
	GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error)
	ListVotes(ctx context.Context, filter models.VoteFilter) ([]models.Vote, error)
	UpdateVote(ctx context.Context, id uuid.UUID, upd models.UpdateVote) (*models.Vote, error)
	DeleteVote(ctx context.Context, id uuid.UUID) error
	AddQuestion(ctx context.Context, voteID uuid.UUID, req models.CreateQuestion, userID uuid.UUID, meta models.RequestMeta) (*models.VoteQuestion, error)
	UpdateQuestion(ctx context.Context, voteID, questionID uuid.UUID, upd models.UpdateQuestion) (*models.VoteQuestion, error)
	RemoveQuestion(ctx context.Context, voteID, questionID, userID uuid.UUID, meta models.RequestMeta) error
	ListQuestions(ctx context.Context, voteID uuid.UUID) ([]models.VoteQuestion, error)
	Publish(ctx context.Context, id uuid.UUID, startAt *time.Time, userID uuid.UUID, meta models.RequestMeta) (*models.Vote, error)
	Cancel(ctx context.Context, id, userID uuid.UUID, reason string, meta models.RequestMeta) (*models.Vote, error)
	Close(ctx context.Context, id uuid.UUID, userID *uuid.UUID, meta models.RequestMeta) (*models.Vote, *models.Results, error)
	ActivateScheduledVotes(ctx context.Context) ([]uuid.UUID, error)
	CloseExpiredVotes(ctx context.Context) ([]CloseOutcome, error)
	Sweep(ctx context.Context) (*SweepResult, error)
	CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int, error)
	CountActiveByBuilding(ctx context.Context, buildingID uuid.UUID) (int, error)
	SetBroadcaster(b Broadcaster)
}

// BallotServicer defines the interface for ballot operations
type BallotServicer interface {
	CastVote(ctx context.Context, req models.CastVote, meta models.RequestMeta) (*models.Receipt, error)
	CheckEligibility(ctx context.Context, voteID, userID uuid.UUID) (*models.Eligibility, error)
	GetBallot(ctx context.Context, voteID, unitID uuid.UUID) (*models.Ballot, error)
	ReceiptQR(ctx context.Context, voteID, unitID uuid.UUID) ([]byte, error)
	SetBroadcaster(b Broadcaster)
}

// ResultsServicer defines the interface for results and reporting
type ResultsServicer interface {
	GetResults(ctx context.Context, voteID uuid.UUID) (*models.Results, error)
	GenerateReport(ctx context.Context, voteID uuid.UUID) (*models.ReportData, error)
}

// AuditServicer defines the interface for audit trail access
type AuditServicer interface {
	GetAuditLog(ctx context.Context, voteID uuid.UUID) ([]models.AuditEntry, error)
	VerifyAuditLog(ctx context.Context, voteID uuid.UUID) (*models.AuditVerification, error)
}

// CommentServicer defines the interface for vote discussion threads
type CommentServicer interface {
	AddComment(ctx context.Context, req models.CreateComment, meta models.RequestMeta) (*models.Comment, error)
	ListComments(ctx context.Context, voteID uuid.UUID, includeHidden bool) ([]models.Comment, error)
	ListReplies(ctx context.Context, voteID, parentID uuid.UUID, includeHidden bool) ([]models.Comment, error)
	HideComment(ctx context.Context, voteID, commentID, userID uuid.UUID, reason string, meta models.RequestMeta) error
}

// MembershipServicer defines the interface for membership synchronisation
type MembershipServicer interface {
	SyncBuilding(ctx context.Context, buildingID uuid.UUID) (*SyncResult, error)
}

// Ensure concrete types implement interfaces
var (
	_ VoteServicer       = (*VoteService)(nil)
	_ BallotServicer     = (*BallotService)(nil)
	_ ResultsServicer    = (*ResultsService)(nil)
	_ AuditServicer      = (*AuditService)(nil)
	_ CommentServicer    = (*CommentService)(nil)
	_ MembershipServicer = (*MembershipService)(nil)
)
