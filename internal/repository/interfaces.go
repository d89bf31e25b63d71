package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
)

// VoteRepository defines vote data operations
type VoteRepository interface {
	CreateVote(ctx context.Context, v *models.Vote, event models.AuditEvent) error
	GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error)
	ListVotes(ctx context.Context, f models.VoteFilter) ([]models.Vote, error)
	UpdateDraftVote(ctx context.Context, v *models.Vote) error
	DeleteDraftVote(ctx context.Context, id uuid.UUID) error
	PublishVote(ctx context.Context, id uuid.UUID, p PublishParams) (*models.Vote, error)
	CancelVote(ctx context.Context, id, cancelledBy uuid.UUID, reason string, now time.Time, event models.AuditEvent) (*models.Vote, error)
	CloseVote(ctx context.Context, id uuid.UUID, now time.Time, calc CloseFunc) (*models.Vote, *models.Results, error)
	ActivateScheduledVotes(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ListExpiredVoteIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	CountVotesByOrganization(ctx context.Context, organizationID uuid.UUID) (int, error)
	CountActiveVotesByBuilding(ctx context.Context, buildingID uuid.UUID) (int, error)
}

// QuestionRepository defines question data operations
type QuestionRepository interface {
	AddQuestion(ctx context.Context, q *models.VoteQuestion, event models.AuditEvent) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.VoteQuestion, error)
	UpdateQuestion(ctx context.Context, q *models.VoteQuestion) error
	DeleteQuestion(ctx context.Context, voteID, questionID uuid.UUID, now time.Time, event models.AuditEvent) error
	ListQuestions(ctx context.Context, voteID uuid.UUID) ([]models.VoteQuestion, error)
	CountQuestions(ctx context.Context, voteID uuid.UUID) (int, error)
}

// BallotRepository defines ballot data operations
type BallotRepository interface {
	UpsertBallot(ctx context.Context, b *models.Ballot, event models.AuditEvent, overwrite bool) (int, error)
	GetBallot(ctx context.Context, voteID, unitID uuid.UUID) (*models.Ballot, error)
	ListBallots(ctx context.Context, voteID uuid.UUID) ([]models.Ballot, error)
	HasBallot(ctx context.Context, voteID, unitID uuid.UUID) (bool, error)
}

// AuditRepository defines audit trail reads. Entries are only ever written
// alongside the change they describe.
type AuditRepository interface {
	ListAudit(ctx context.Context, voteID uuid.UUID) ([]models.AuditEntry, error)
}

// CommentRepository defines comment data operations
type CommentRepository interface {
	AddComment(ctx context.Context, c *models.Comment, event models.AuditEvent) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListComments(ctx context.Context, voteID uuid.UUID, includeHidden bool) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentID uuid.UUID, includeHidden bool) ([]models.Comment, error)
	HideComment(ctx context.Context, voteID, commentID, hiddenBy uuid.UUID, reason string, now time.Time, event models.AuditEvent) error
}

// MembershipRepository defines unit, residency and delegation data operations
type MembershipRepository interface {
	UpsertUnit(ctx context.Context, u *models.Unit) error
	GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	UpsertResident(ctx context.Context, res models.Resident) error
	MoveOut(ctx context.Context, unitID, userID uuid.UUID, at time.Time) error
	UpsertDelegation(ctx context.Context, d *models.Delegation) error
	OwnerUnits(ctx context.Context, buildingID uuid.UUID) ([]models.Unit, error)
	UserOwnedUnits(ctx context.Context, buildingID, userID uuid.UUID) ([]models.Unit, error)
	ActiveDelegations(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Delegation, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	VoteRepository
	QuestionRepository
	BallotRepository
	AuditRepository
	CommentRepository
	MembershipRepository
	Ping(ctx context.Context) error
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
