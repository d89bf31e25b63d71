package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.ListBallotsError = errors.New("database error")
//	svc := services.NewResultsService(log, mockRepo, provider)
//	_, err := svc.GetResults(ctx, voteID)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Vote Errors =====
	CreateVoteError             error
	GetVoteError                error
	ListVotesError              error
	UpdateDraftVoteError        error
	DeleteDraftVoteError        error
	PublishVoteError            error
	CancelVoteError             error
	CloseVoteError              error
	ActivateScheduledVotesError error
	ListExpiredVoteIDsError     error
	CountVotesError             error

	// ===== Question Errors =====
	AddQuestionError    error
	GetQuestionError    error
	UpdateQuestionError error
	DeleteQuestionError error
	ListQuestionsError  error
	CountQuestionsError error

	// ===== Ballot Errors =====
	UpsertBallotError error
	GetBallotError    error
	ListBallotsError  error
	HasBallotError    error

	// ===== Audit Errors =====
	ListAuditError error

	// ===== Comment Errors =====
	AddCommentError   error
	GetCommentError   error
	ListCommentsError error
	HideCommentError  error

	// ===== Membership Errors =====
	UpsertUnitError        error
	GetUnitError           error
	UpsertResidentError    error
	UpsertDelegationError  error
	OwnerUnitsError        error
	UserOwnedUnitsError    error
	ActiveDelegationsError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Vote Methods =====

func (m *Repository) CreateVote(ctx context.Context, v *models.Vote, event models.AuditEvent) error {
	if m.CreateVoteError != nil {
		return m.CreateVoteError
	}
	return m.FullRepository.CreateVote(ctx, v, event)
}

func (m *Repository) GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error) {
	if m.GetVoteError != nil {
		return nil, m.GetVoteError
	}
	return m.FullRepository.GetVote(ctx, id)
}

func (m *Repository) ListVotes(ctx context.Context, f models.VoteFilter) ([]models.Vote, error) {
	if m.ListVotesError != nil {
		return nil, m.ListVotesError
	}
	return m.FullRepository.ListVotes(ctx, f)
}

func (m *Repository) UpdateDraftVote(ctx context.Context, v *models.Vote) error {
	if m.UpdateDraftVoteError != nil {
		return m.UpdateDraftVoteError
	}
	return m.FullRepository.UpdateDraftVote(ctx, v)
}

func (m *Repository) DeleteDraftVote(ctx context.Context, id uuid.UUID) error {
	if m.DeleteDraftVoteError != nil {
		return m.DeleteDraftVoteError
	}
	return m.FullRepository.DeleteDraftVote(ctx, id)
}

func (m *Repository) PublishVote(ctx context.Context, id uuid.UUID, p repository.PublishParams) (*models.Vote, error) {
	if m.PublishVoteError != nil {
		return nil, m.PublishVoteError
	}
	return m.FullRepository.PublishVote(ctx, id, p)
}

func (m *Repository) CancelVote(ctx context.Context, id, cancelledBy uuid.UUID, reason string, now time.Time, event models.AuditEvent) (*models.Vote, error) {
	if m.CancelVoteError != nil {
		return nil, m.CancelVoteError
	}
	return m.FullRepository.CancelVote(ctx, id, cancelledBy, reason, now, event)
}

func (m *Repository) CloseVote(ctx context.Context, id uuid.UUID, now time.Time, calc repository.CloseFunc) (*models.Vote, *models.Results, error) {
	if m.CloseVoteError != nil {
		return nil, nil, m.CloseVoteError
	}
	return m.FullRepository.CloseVote(ctx, id, now, calc)
}

func (m *Repository) ActivateScheduledVotes(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	if m.ActivateScheduledVotesError != nil {
		return nil, m.ActivateScheduledVotesError
	}
	return m.FullRepository.ActivateScheduledVotes(ctx, now)
}

func (m *Repository) ListExpiredVoteIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	if m.ListExpiredVoteIDsError != nil {
		return nil, m.ListExpiredVoteIDsError
	}
	return m.FullRepository.ListExpiredVoteIDs(ctx, now)
}

func (m *Repository) CountVotesByOrganization(ctx context.Context, organizationID uuid.UUID) (int, error) {
	if m.CountVotesError != nil {
		return 0, m.CountVotesError
	}
	return m.FullRepository.CountVotesByOrganization(ctx, organizationID)
}

func (m *Repository) CountActiveVotesByBuilding(ctx context.Context, buildingID uuid.UUID) (int, error) {
	if m.CountVotesError != nil {
		return 0, m.CountVotesError
	}
	return m.FullRepository.CountActiveVotesByBuilding(ctx, buildingID)
}

// ===== Question Methods =====

func (m *Repository) AddQuestion(ctx context.Context, q *models.VoteQuestion, event models.AuditEvent) error {
	if m.AddQuestionError != nil {
		return m.AddQuestionError
	}
	return m.FullRepository.AddQuestion(ctx, q, event)
}

func (m *Repository) GetQuestion(ctx context.Context, id uuid.UUID) (*models.VoteQuestion, error) {
	if m.GetQuestionError != nil {
		return nil, m.GetQuestionError
	}
	return m.FullRepository.GetQuestion(ctx, id)
}

func (m *Repository) UpdateQuestion(ctx context.Context, q *models.VoteQuestion) error {
	if m.UpdateQuestionError != nil {
		return m.UpdateQuestionError
	}
	return m.FullRepository.UpdateQuestion(ctx, q)
}

func (m *Repository) DeleteQuestion(ctx context.Context, voteID, questionID uuid.UUID, now time.Time, event models.AuditEvent) error {
	if m.DeleteQuestionError != nil {
		return m.DeleteQuestionError
	}
	return m.FullRepository.DeleteQuestion(ctx, voteID, questionID, now, event)
}

func (m *Repository) ListQuestions(ctx context.Context, voteID uuid.UUID) ([]models.VoteQuestion, error) {
	if m.ListQuestionsError != nil {
		return nil, m.ListQuestionsError
	}
	return m.FullRepository.ListQuestions(ctx, voteID)
}

func (m *Repository) CountQuestions(ctx context.Context, voteID uuid.UUID) (int, error) {
	if m.CountQuestionsError != nil {
		return 0, m.CountQuestionsError
	}
	return m.FullRepository.CountQuestions(ctx, voteID)
}

// ===== Ballot Methods =====

func (m *Repository) UpsertBallot(ctx context.Context, b *models.Ballot, event models.AuditEvent, overwrite bool) (int, error) {
	if m.UpsertBallotError != nil {
		return 0, m.UpsertBallotError
	}
	return m.FullRepository.UpsertBallot(ctx, b, event, overwrite)
}

func (m *Repository) GetBallot(ctx context.Context, voteID, unitID uuid.UUID) (*models.Ballot, error) {
	if m.GetBallotError != nil {
		return nil, m.GetBallotError
	}
	return m.FullRepository.GetBallot(ctx, voteID, unitID)
}

func (m *Repository) ListBallots(ctx context.Context, voteID uuid.UUID) ([]models.Ballot, error) {
	if m.ListBallotsError != nil {
		return nil, m.ListBallotsError
	}
	return m.FullRepository.ListBallots(ctx, voteID)
}

func (m *Repository) HasBallot(ctx context.Context, voteID, unitID uuid.UUID) (bool, error) {
	if m.HasBallotError != nil {
		return false, m.HasBallotError
	}
	return m.FullRepository.HasBallot(ctx, voteID, unitID)
}

// ===== Audit Methods =====

func (m *Repository) ListAudit(ctx context.Context, voteID uuid.UUID) ([]models.AuditEntry, error) {
	if m.ListAuditError != nil {
		return nil, m.ListAuditError
	}
	return m.FullRepository.ListAudit(ctx, voteID)
}

// ===== Comment Methods =====

func (m *Repository) AddComment(ctx context.Context, c *models.Comment, event models.AuditEvent) error {
	if m.AddCommentError != nil {
		return m.AddCommentError
	}
	return m.FullRepository.AddComment(ctx, c, event)
}

func (m *Repository) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	if m.GetCommentError != nil {
		return nil, m.GetCommentError
	}
	return m.FullRepository.GetComment(ctx, id)
}

func (m *Repository) ListComments(ctx context.Context, voteID uuid.UUID, includeHidden bool) ([]models.Comment, error) {
	if m.ListCommentsError != nil {
		return nil, m.ListCommentsError
	}
	return m.FullRepository.ListComments(ctx, voteID, includeHidden)
}

func (m *Repository) ListReplies(ctx context.Context, parentID uuid.UUID, includeHidden bool) ([]models.Comment, error) {
	if m.ListCommentsError != nil {
		return nil, m.ListCommentsError
	}
	return m.FullRepository.ListReplies(ctx, parentID, includeHidden)
}

func (m *Repository) HideComment(ctx context.Context, voteID, commentID, hiddenBy uuid.UUID, reason string, now time.Time, event models.AuditEvent) error {
	if m.HideCommentError != nil {
		return m.HideCommentError
	}
	return m.FullRepository.HideComment(ctx, voteID, commentID, hiddenBy, reason, now, event)
}

// ===== Membership Methods =====

func (m *Repository) UpsertUnit(ctx context.Context, u *models.Unit) error {
	if m.UpsertUnitError != nil {
		return m.UpsertUnitError
	}
	return m.FullRepository.UpsertUnit(ctx, u)
}

func (m *Repository) GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	if m.GetUnitError != nil {
		return nil, m.GetUnitError
	}
	return m.FullRepository.GetUnit(ctx, id)
}

func (m *Repository) UpsertResident(ctx context.Context, res models.Resident) error {
	if m.UpsertResidentError != nil {
		return m.UpsertResidentError
	}
	return m.FullRepository.UpsertResident(ctx, res)
}

func (m *Repository) UpsertDelegation(ctx context.Context, d *models.Delegation) error {
	if m.UpsertDelegationError != nil {
		return m.UpsertDelegationError
	}
	return m.FullRepository.UpsertDelegation(ctx, d)
}

func (m *Repository) OwnerUnits(ctx context.Context, buildingID uuid.UUID) ([]models.Unit, error) {
	if m.OwnerUnitsError != nil {
		return nil, m.OwnerUnitsError
	}
	return m.FullRepository.OwnerUnits(ctx, buildingID)
}

func (m *Repository) UserOwnedUnits(ctx context.Context, buildingID, userID uuid.UUID) ([]models.Unit, error) {
	if m.UserOwnedUnitsError != nil {
		return nil, m.UserOwnedUnitsError
	}
	return m.FullRepository.UserOwnedUnits(ctx, buildingID, userID)
}

func (m *Repository) ActiveDelegations(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Delegation, error) {
	if m.ActiveDelegationsError != nil {
		return nil, m.ActiveDelegationsError
	}
	return m.FullRepository.ActiveDelegations(ctx, userID, now)
}
