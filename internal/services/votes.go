package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
	"github.com/abrezinsky/ownervote/internal/tally"
)

// VoteServiceRepository defines the repository methods needed by VoteService
type VoteServiceRepository interface {
	repository.VoteRepository
	repository.QuestionRepository
}

// VoteService drives the vote lifecycle: drafting, publishing, closing,
// cancelling and the time-based sweeps.
type VoteService struct {
	log         logger.Logger
	repo        VoteServiceRepository
	eligibility *EligibilityResolver
	broadcaster Broadcaster
	now         Clock
}

// NewVoteService creates a new VoteService
func NewVoteService(log logger.Logger, repo VoteServiceRepository, eligibility *EligibilityResolver) *VoteService {
	return &VoteService{
		log:         log,
		repo:        repo,
		eligibility: eligibility,
		now:         time.Now,
	}
}

// SetBroadcaster sets the broadcaster for lifecycle events
func (s *VoteService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetClock replaces the time source
func (s *VoteService) SetClock(c Clock) {
	s.now = c
}

// CloseOutcome is the result of closing one due vote during a sweep
type CloseOutcome struct {
	VoteID uuid.UUID `json:"vote_id"`
	Closed bool      `json:"closed"`
	Error  string    `json:"error,omitempty"`
}

// SweepResult contains the result of one activate-then-close pass
type SweepResult struct {
	Activated []uuid.UUID    `json:"activated"`
	Closed    []CloseOutcome `json:"closed"`
	Failed    int            `json:"failed"`
}

// ==================== Drafting ====================

// CreatePoll creates a draft vote
func (s *VoteService) CreatePoll(ctx context.Context, req models.CreateVote, meta models.RequestMeta) (*models.Vote, error) {
	now := s.now().UTC()
	vote := &models.Vote{
		ID:               uuid.New(),
		OrganizationID:   req.OrganizationID,
		BuildingID:       req.BuildingID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		StartAt:          req.StartAt,
		EndAt:            req.EndAt,
		Status:           models.VoteStatusDraft,
		QuorumType:       req.QuorumType,
		QuorumPercentage: req.QuorumPercentage,
		AllowDelegation:  true,
		CreatedBy:        req.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if vote.QuorumType == "" {
		vote.QuorumType = models.QuorumTypeSimpleMajority
	}
	if req.AllowDelegation != nil {
		vote.AllowDelegation = *req.AllowDelegation
	}
	if req.AnonymousVoting != nil {
		vote.AnonymousVoting = *req.AnonymousVoting
	}

	if req.OrganizationID == uuid.Nil || req.BuildingID == uuid.Nil {
		return nil, errors.Validation("organization_id and building_id are required")
	}
	if req.CreatedBy == uuid.Nil {
		return nil, errors.Validation("created_by is required")
	}
	if err := validateVote(vote); err != nil {
		return nil, err
	}

	event := models.AuditEvent{
		UserID: &vote.CreatedBy,
		Action: models.AuditVoteCreated,
		Data: map[string]any{
			"title":       vote.Title,
			"building_id": vote.BuildingID,
			"end_at":      vote.EndAt,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.CreateVote(ctx, vote, event); err != nil {
		return nil, err
	}

	s.log.Info("Vote created", "vote_id", vote.ID, "building_id", vote.BuildingID)
	return vote, nil
}

// validateVote checks the editable fields of a vote
func validateVote(v *models.Vote) error {
	if v.Title == "" {
		return errors.Validation("title is required")
	}
	if v.EndAt.IsZero() {
		return errors.Validation("end_at is required")
	}
	if v.StartAt != nil && !v.StartAt.Before(v.EndAt) {
		return errors.Validation("start_at must be before end_at")
	}
	if !v.QuorumType.Valid() {
		return errors.Validationf("unknown quorum_type %q", v.QuorumType)
	}
	if v.QuorumPercentage != nil && (*v.QuorumPercentage < 1 || *v.QuorumPercentage > 100) {
		return errors.Validation("quorum_percentage must be between 1 and 100")
	}
	return nil
}

// GetVote retrieves a vote by ID
func (s *VoteService) GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error) {
	vote, err := s.repo.GetVote(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrVoteNotFound)
	}
	return vote, nil
}

// ListVotes returns votes matching the filter
func (s *VoteService) ListVotes(ctx context.Context, filter models.VoteFilter) ([]models.Vote, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, errors.Validationf("unknown status %q", st)
		}
	}
	return s.repo.ListVotes(ctx, filter)
}

// UpdateVote edits a draft vote
func (s *VoteService) UpdateVote(ctx context.Context, id uuid.UUID, upd models.UpdateVote) (*models.Vote, error) {
	vote, err := s.GetVote(ctx, id)
	if err != nil {
		return nil, err
	}
	if vote.Status != models.VoteStatusDraft {
		return nil, errors.InvalidTransitionf("cannot edit a %s vote", vote.Status)
	}

	upd.Apply(vote)
	vote.Title = strings.TrimSpace(vote.Title)
	if err := validateVote(vote); err != nil {
		return nil, err
	}
	vote.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateDraftVote(ctx, vote); err != nil {
		return nil, transitionError(err, "edit")
	}
	return vote, nil
}

// DeleteVote removes a draft vote. Its audit entries remain.
func (s *VoteService) DeleteVote(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteDraftVote(ctx, id); err != nil {
		return transitionError(err, "delete")
	}
	s.log.Info("Draft vote deleted", "vote_id", id)
	return nil
}

// ==================== Questions ====================

// AddQuestion appends a question to a draft vote
func (s *VoteService) AddQuestion(ctx context.Context, voteID uuid.UUID, req models.CreateQuestion, userID uuid.UUID, meta models.RequestMeta) (*models.VoteQuestion, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.Validation("question_text is required")
	}
	kind, err := tally.KindOf(req.Type)
	if err != nil {
		return nil, err
	}

	options := normalizeOptions(req.Options)
	if len(options) == 0 && req.Type == models.QuestionTypeYesNo {
		options = tally.DefaultYesNoOptions()
	}
	if err := kind.ValidateOptions(options); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	q := &models.VoteQuestion{
		ID:          uuid.New(),
		VoteID:      voteID,
		Text:        text,
		Description: req.Description,
		Type:        req.Type,
		Options:     options,
		IsRequired:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsRequired != nil {
		q.IsRequired = *req.IsRequired
	}
	if req.DisplayOrder != nil {
		q.DisplayOrder = *req.DisplayOrder
	} else {
		n, err := s.repo.CountQuestions(ctx, voteID)
		if err != nil {
			return nil, err
		}
		q.DisplayOrder = n
	}

	event := models.AuditEvent{
		UserID: &userID,
		Action: models.AuditQuestionAdded,
		Data: map[string]any{
			"question_id":   q.ID,
			"question_text": q.Text,
			"question_type": q.Type,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.AddQuestion(ctx, q, event); err != nil {
		return nil, transitionError(err, "add questions to")
	}
	return q, nil
}

// UpdateQuestion edits a question of a draft vote
func (s *VoteService) UpdateQuestion(ctx context.Context, voteID, questionID uuid.UUID, upd models.UpdateQuestion) (*models.VoteQuestion, error) {
	q, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, notFound(err, ErrQuestionNotFound)
	}
	if q.VoteID != voteID {
		return nil, ErrQuestionNotFound
	}

	if upd.Options != nil {
		upd.Options = normalizeOptions(upd.Options)
	}
	upd.Apply(q)
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, errors.Validation("question_text is required")
	}
	kind, err := tally.KindOf(q.Type)
	if err != nil {
		return nil, err
	}
	if err := kind.ValidateOptions(q.Options); err != nil {
		return nil, err
	}
	q.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateQuestion(ctx, q); err != nil {
		return nil, questionError(err, "edit questions of")
	}
	return q, nil
}

// RemoveQuestion deletes a question from a draft vote
func (s *VoteService) RemoveQuestion(ctx context.Context, voteID, questionID, userID uuid.UUID, meta models.RequestMeta) error {
	event := models.AuditEvent{
		UserID:    &userID,
		Action:    models.AuditQuestionRemoved,
		Data:      map[string]any{"question_id": questionID},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.DeleteQuestion(ctx, voteID, questionID, s.now().UTC(), event); err != nil {
		return questionError(err, "remove questions from")
	}
	return nil
}

// ListQuestions returns a vote's questions in display order
func (s *VoteService) ListQuestions(ctx context.Context, voteID uuid.UUID) ([]models.VoteQuestion, error) {
	if _, err := s.GetVote(ctx, voteID); err != nil {
		return nil, err
	}
	return s.repo.ListQuestions(ctx, voteID)
}

// normalizeOptions copies the options and gives every option without an id a new one
func normalizeOptions(in []models.QuestionOption) []models.QuestionOption {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.QuestionOption, len(in))
	for i, opt := range in {
		opt.Label = strings.TrimSpace(opt.Label)
		if opt.ID == uuid.Nil {
			opt.ID = uuid.New()
		}
		out[i] = opt
	}
	return out
}

// ==================== Lifecycle ====================

// Publish moves a draft to scheduled, or to active when startAt is absent or
// already passed. The eligible count is frozen here.
func (s *VoteService) Publish(ctx context.Context, id uuid.UUID, startAt *time.Time, userID uuid.UUID, meta models.RequestMeta) (*models.Vote, error) {
	vote, err := s.GetVote(ctx, id)
	if err != nil {
		return nil, err
	}
	if vote.Status != models.VoteStatusDraft {
		return nil, errors.InvalidTransitionf("cannot publish a %s vote", vote.Status)
	}
	n, err := s.repo.CountQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoQuestions
	}

	now := s.now().UTC()
	if startAt == nil {
		startAt = vote.StartAt
	}
	status := models.VoteStatusActive
	start := now
	if startAt != nil && startAt.After(now) {
		status = models.VoteStatusScheduled
		start = startAt.UTC()
	}
	if !start.Before(vote.EndAt) {
		return nil, errors.Validation("start_at must be before end_at")
	}

	eligible, err := s.eligibility.EligibleCount(ctx, vote)
	if err != nil {
		return nil, err
	}

	published, err := s.repo.PublishVote(ctx, id, repository.PublishParams{
		Status:        status,
		StartAt:       start,
		EligibleCount: eligible,
		PublishedBy:   userID,
		Now:           now,
		Audit: models.AuditEvent{
			UserID:    &userID,
			Action:    models.AuditVotePublished,
			Data:      map[string]any{"status": status, "eligible_count": eligible},
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		},
	})
	if err != nil {
		return nil, transitionError(err, "publish")
	}

	s.log.Info("Vote published", "vote_id", id, "status", status, "eligible_count", eligible)
	s.broadcastStatus(published)
	return published, nil
}

// Cancel cancels a draft, scheduled or active vote. Ballots already cast stay.
func (s *VoteService) Cancel(ctx context.Context, id, userID uuid.UUID, reason string, meta models.RequestMeta) (*models.Vote, error) {
	reason = strings.TrimSpace(reason)
	event := models.AuditEvent{
		UserID:    &userID,
		Action:    models.AuditVoteCancelled,
		Data:      map[string]any{"reason": reason},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	vote, err := s.repo.CancelVote(ctx, id, userID, reason, s.now().UTC(), event)
	if err != nil {
		return nil, transitionError(err, "cancel")
	}

	s.log.Info("Vote cancelled", "vote_id", id, "reason", reason)
	s.broadcastStatus(vote)
	return vote, nil
}

// Close closes an active vote, tallying and freezing its results. userID is
// nil when the close comes from the expiry sweep.
func (s *VoteService) Close(ctx context.Context, id uuid.UUID, userID *uuid.UUID, meta models.RequestMeta) (*models.Vote, *models.Results, error) {
	now := s.now().UTC()
	calc := func(vote *models.Vote, questions []models.VoteQuestion, ballots []models.Ballot) (*models.Results, []models.AuditEvent, error) {
		results, err := tally.Calculate(vote, questions, ballots, now)
		if err != nil {
			return nil, nil, err
		}
		events := []models.AuditEvent{
			{
				UserID: userID,
				Action: models.AuditResultsCalculated,
				Data: map[string]any{
					"participation_count": results.ParticipationCount,
					"participation_rate":  results.ParticipationRate,
					"quorum_met":          results.QuorumMet,
				},
				IPAddress: meta.IPAddress,
				UserAgent: meta.UserAgent,
			},
			{
				UserID: userID,
				Action: models.AuditVoteClosed,
				Data: map[string]any{
					"participation_count": results.ParticipationCount,
					"quorum_met":          results.QuorumMet,
				},
				IPAddress: meta.IPAddress,
				UserAgent: meta.UserAgent,
			},
		}
		return results, events, nil
	}

	vote, results, err := s.repo.CloseVote(ctx, id, now, calc)
	if err != nil {
		return nil, nil, transitionError(err, "close")
	}

	s.log.Info("Vote closed", "vote_id", id, "participation", results.ParticipationCount,
		"eligible", results.EligibleCount, "quorum_met", results.QuorumMet)
	s.broadcastStatus(vote)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastResults(results)
	}
	return vote, results, nil
}

// ActivateScheduledVotes activates every scheduled vote whose start has passed
func (s *VoteService) ActivateScheduledVotes(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.repo.ActivateScheduledVotes(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s.log.Info("Vote activated", "vote_id", id)
		if s.broadcaster == nil {
			continue
		}
		vote, err := s.repo.GetVote(ctx, id)
		if err != nil {
			s.log.Warn("Failed to load activated vote", "vote_id", id, "error", err)
			continue
		}
		s.broadcaster.BroadcastVoteStatus(vote)
	}
	return ids, nil
}

// CloseExpiredVotes closes every active vote whose end has passed. Each vote
// is closed on its own; one failure does not stop the rest. A vote closed
// concurrently by someone else is reported as not closed, without error.
func (s *VoteService) CloseExpiredVotes(ctx context.Context) ([]CloseOutcome, error) {
	ids, err := s.repo.ListExpiredVoteIDs(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}

	outcomes := make([]CloseOutcome, 0, len(ids))
	for _, id := range ids {
		outcome := CloseOutcome{VoteID: id}
		_, _, err := s.Close(ctx, id, nil, models.RequestMeta{})
		switch {
		case err == nil:
			outcome.Closed = true
		case errors.IsKind(err, errors.ErrInvalidTransition):
			s.log.Debug("Vote already left active state", "vote_id", id)
		default:
			s.log.Error("Failed to close expired vote", "vote_id", id, "error", err)
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// Sweep activates due scheduled votes, then closes expired ones
func (s *VoteService) Sweep(ctx context.Context) (*SweepResult, error) {
	activated, err := s.ActivateScheduledVotes(ctx)
	if err != nil {
		return nil, err
	}
	closed, err := s.CloseExpiredVotes(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Activated: activated, Closed: closed}
	for _, o := range closed {
		if o.Error != "" {
			result.Failed++
		}
	}
	return result, nil
}

// ==================== Counters ====================

// CountByOrganization counts all votes of an organization
func (s *VoteService) CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int, error) {
	return s.repo.CountVotesByOrganization(ctx, organizationID)
}

// CountActiveByBuilding counts the active votes of a building
func (s *VoteService) CountActiveByBuilding(ctx context.Context, buildingID uuid.UUID) (int, error) {
	return s.repo.CountActiveVotesByBuilding(ctx, buildingID)
}

func (s *VoteService) broadcastStatus(vote *models.Vote) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastVoteStatus(vote)
	}
}

// transitionError translates repository guard failures on a vote
func transitionError(err error, action string) error {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return ErrVoteNotFound
	case stderrors.Is(err, repository.ErrStatusConflict):
		return errors.InvalidTransitionf("cannot %s a vote in its current status", action)
	}
	return err
}

// questionError translates repository guard failures on a question
func questionError(err error, action string) error {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return ErrQuestionNotFound
	case stderrors.Is(err, repository.ErrStatusConflict):
		return errors.InvalidTransitionf("cannot %s a vote that is no longer a draft", action)
	}
	return err
}
