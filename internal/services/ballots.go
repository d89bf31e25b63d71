package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/integrity"
	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
	"github.com/abrezinsky/ownervote/internal/tally"
)

// BallotServiceRepository defines the repository methods needed by BallotService
type BallotServiceRepository interface {
	GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error)
	ListQuestions(ctx context.Context, voteID uuid.UUID) ([]models.VoteQuestion, error)
	repository.BallotRepository
}

// BallotService records ballots and answers eligibility questions
type BallotService struct {
	log              logger.Logger
	repo             BallotServiceRepository
	eligibility      *EligibilityResolver
	broadcaster      Broadcaster
	now              Clock
	rejectDuplicates bool
}

// NewBallotService creates a new BallotService
func NewBallotService(log logger.Logger, repo BallotServiceRepository, eligibility *EligibilityResolver) *BallotService {
	return &BallotService{
		log:         log,
		repo:        repo,
		eligibility: eligibility,
		now:         time.Now,
	}
}

// SetBroadcaster sets the broadcaster for participation updates
func (s *BallotService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetClock replaces the time source
func (s *BallotService) SetClock(c Clock) {
	s.now = c
}

// SetRejectDuplicates makes a second ballot for the same unit fail instead of
// replacing the first.
func (s *BallotService) SetRejectDuplicates(reject bool) {
	s.rejectDuplicates = reject
}

// CastVote records the ballot of one unit. By default a re-cast replaces the
// unit's previous ballot.
func (s *BallotService) CastVote(ctx context.Context, req models.CastVote, meta models.RequestMeta) (*models.Receipt, error) {
	vote, err := s.repo.GetVote(ctx, req.VoteID)
	if err != nil {
		return nil, notFound(err, ErrVoteNotFound)
	}

	now := s.now().UTC()
	if !vote.AcceptingBallots(now) {
		return nil, ErrVotingClosed
	}

	units, err := s.eligibility.Resolve(ctx, vote, req.UserID, now)
	if err != nil {
		return nil, err
	}
	var unit *models.EligibleUnit
	for i := range units {
		if units[i].UnitID == req.UnitID {
			unit = &units[i]
			break
		}
	}
	if unit == nil {
		return nil, ErrNotEligible
	}

	delegationID := unit.DelegationID
	if req.DelegationID != nil {
		if unit.DelegationID == nil || *unit.DelegationID != *req.DelegationID {
			return nil, ErrDelegationMismatch
		}
	}

	questions, err := s.repo.ListQuestions(ctx, vote.ID)
	if err != nil {
		return nil, err
	}
	if err := validateAnswers(questions, req); err != nil {
		return nil, err
	}

	// Hash and store the same millisecond-precision instant so the hash can
	// be recomputed from the stored row.
	submittedAt := now.Truncate(time.Millisecond)
	hash, err := integrity.ResponseHash(vote.ID, req.UserID, req.UnitID, req.Answers, submittedAt)
	if err != nil {
		return nil, err
	}

	ballot := &models.Ballot{
		ID:           uuid.New(),
		VoteID:       vote.ID,
		UserID:       req.UserID,
		UnitID:       req.UnitID,
		DelegationID: delegationID,
		IsDelegated:  delegationID != nil,
		Answers:      req.Answers,
		VoteWeight:   unit.OwnershipShare,
		ResponseHash: hash,
		SubmittedAt:  submittedAt,
	}

	action := models.AuditBallotCast
	if delegationID != nil {
		action = models.AuditBallotUpdated
	}
	event := models.AuditEvent{
		UserID: &req.UserID,
		Action: action,
		Data: map[string]any{
			"unit_id":       req.UnitID,
			"response_hash": hash,
			"is_delegated":  ballot.IsDelegated,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	participation, err := s.repo.UpsertBallot(ctx, ballot, event, !s.rejectDuplicates)
	switch {
	case stderrors.Is(err, repository.ErrDuplicate):
		return nil, ErrDuplicateBallot
	case stderrors.Is(err, repository.ErrStatusConflict):
		return nil, ErrVotingClosed
	case err != nil:
		return nil, notFound(err, ErrVoteNotFound)
	}

	s.log.Info("Ballot recorded", "vote_id", vote.ID, "unit_id", req.UnitID, "delegated", ballot.IsDelegated,
		"participation", participation)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastParticipation(vote.ID, participation, vote.EligibleTotal())
	}

	return &models.Receipt{
		ResponseID:         ballot.ID,
		VoteID:             vote.ID,
		UnitID:             req.UnitID,
		Hash:               hash,
		ConfirmationNumber: integrity.ConfirmationNumber(hash),
		SubmittedAt:        submittedAt,
	}, nil
}

// validateAnswers rejects answers to unknown questions, missing required
// answers and answers of the wrong shape.
func validateAnswers(questions []models.VoteQuestion, req models.CastVote) error {
	byID := make(map[string]*models.VoteQuestion, len(questions))
	for i := range questions {
		byID[questions[i].ID.String()] = &questions[i]
	}
	for key := range req.Answers {
		if _, ok := byID[key]; !ok {
			return errors.Validationf("answer for unknown question %s", key)
		}
	}

	b := models.Ballot{Answers: req.Answers}
	for i := range questions {
		q := &questions[i]
		answer := b.Answer(q.ID)
		if answer == nil {
			if q.IsRequired {
				return errors.Validationf("question %q requires an answer", q.Text)
			}
			continue
		}
		kind, err := tally.KindOf(q.Type)
		if err != nil {
			return err
		}
		if err := kind.ValidateAnswer(answer, q.Options); err != nil {
			return errors.Wrap(err, errors.ErrValidation, fmt.Sprintf("invalid answer to %q", q.Text))
		}
	}
	return nil
}

// CheckEligibility reports whether the user can vote now and through which units
func (s *BallotService) CheckEligibility(ctx context.Context, voteID, userID uuid.UUID) (*models.Eligibility, error) {
	vote, err := s.repo.GetVote(ctx, voteID)
	if err != nil {
		return nil, notFound(err, ErrVoteNotFound)
	}
	return s.eligibility.Check(ctx, vote, userID, s.now().UTC())
}

// GetBallot returns the current ballot of a unit
func (s *BallotService) GetBallot(ctx context.Context, voteID, unitID uuid.UUID) (*models.Ballot, error) {
	b, err := s.repo.GetBallot(ctx, voteID, unitID)
	if err != nil {
		return nil, notFound(err, ErrBallotNotFound)
	}
	return b, nil
}

// ReceiptQR renders the receipt of a unit's current ballot as a PNG QR code
func (s *BallotService) ReceiptQR(ctx context.Context, voteID, unitID uuid.UUID) ([]byte, error) {
	b, err := s.GetBallot(ctx, voteID, unitID)
	if err != nil {
		return nil, err
	}
	content := receiptContent(b)
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode receipt qr: %w", err)
	}
	return png, nil
}

// receiptContent is the text encoded in a receipt QR code
func receiptContent(b *models.Ballot) string {
	return fmt.Sprintf("ownervote:receipt?vote=%s&unit=%s&response=%s&hash=%s&confirmation=%s&at=%d",
		b.VoteID, b.UnitID, b.ID, b.ResponseHash, integrity.ConfirmationNumber(b.ResponseHash),
		b.SubmittedAt.UnixMilli())
}
