package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
	"github.com/abrezinsky/ownervote/internal/tally"
)

// ResultsServiceRepository defines the repository methods needed by ResultsService
type ResultsServiceRepository interface {
	GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error)
	ListQuestions(ctx context.Context, voteID uuid.UUID) ([]models.VoteQuestion, error)
	ListBallots(ctx context.Context, voteID uuid.UUID) ([]models.Ballot, error)
}

// ResultsService handles results and reporting
type ResultsService struct {
	log      logger.Logger
	repo     ResultsServiceRepository
	provider MembershipProvider
	now      Clock
}

// NewResultsService creates a new ResultsService
func NewResultsService(log logger.Logger, repo ResultsServiceRepository, provider MembershipProvider) *ResultsService {
	return &ResultsService{log: log, repo: repo, provider: provider, now: time.Now}
}

// SetClock replaces the time source
func (s *ResultsService) SetClock(c Clock) {
	s.now = c
}

// GetResults returns the frozen results of a closed vote, or a live tally of
// the ballots so far. A live tally is neither stored nor audited.
func (s *ResultsService) GetResults(ctx context.Context, voteID uuid.UUID) (*models.Results, error) {
	vote, err := s.repo.GetVote(ctx, voteID)
	if err != nil {
		return nil, notFound(err, ErrVoteNotFound)
	}
	return s.results(ctx, vote)
}

func (s *ResultsService) results(ctx context.Context, vote *models.Vote) (*models.Results, error) {
	if vote.Status == models.VoteStatusClosed && len(vote.Results) > 0 {
		var frozen models.Results
		if err := json.Unmarshal(vote.Results, &frozen); err != nil {
			return nil, fmt.Errorf("vote %s results snapshot: %w", vote.ID, err)
		}
		return &frozen, nil
	}

	questions, err := s.repo.ListQuestions(ctx, vote.ID)
	if err != nil {
		return nil, err
	}
	ballots, err := s.repo.ListBallots(ctx, vote.ID)
	if err != nil {
		return nil, err
	}
	return tally.Calculate(vote, questions, ballots, s.now())
}

// GenerateReport gathers the vote, its questions, results and per-unit
// participation. Units that voted but no longer have an owner are listed too.
func (s *ResultsService) GenerateReport(ctx context.Context, voteID uuid.UUID) (*models.ReportData, error) {
	vote, err := s.repo.GetVote(ctx, voteID)
	if err != nil {
		return nil, notFound(err, ErrVoteNotFound)
	}
	questions, err := s.repo.ListQuestions(ctx, voteID)
	if err != nil {
		return nil, err
	}
	results, err := s.results(ctx, vote)
	if err != nil {
		return nil, err
	}
	ballots, err := s.repo.ListBallots(ctx, voteID)
	if err != nil {
		return nil, err
	}
	units, err := s.provider.OwnerUnits(ctx, vote.BuildingID)
	if err != nil {
		return nil, err
	}

	voted := make(map[uuid.UUID]models.Ballot, len(ballots))
	for _, b := range ballots {
		voted[b.UnitID] = b
	}

	details := make([]models.ParticipationDetail, 0, len(units))
	listed := make(map[uuid.UUID]bool, len(units))
	for _, u := range units {
		listed[u.ID] = true
		d := models.ParticipationDetail{
			UnitID:          u.ID,
			UnitDesignation: u.Designation,
			VoteWeight:      u.VoteWeight(),
		}
		if b, ok := voted[u.ID]; ok {
			d.Voted = true
			d.VoteWeight = b.VoteWeight
		}
		details = append(details, d)
	}
	for _, b := range ballots {
		if listed[b.UnitID] {
			continue
		}
		d := models.ParticipationDetail{UnitID: b.UnitID, Voted: true, VoteWeight: b.VoteWeight}
		unit, err := s.provider.GetUnit(ctx, b.UnitID)
		switch {
		case err == nil:
			d.UnitDesignation = unit.Designation
		case !stderrors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		details = append(details, d)
	}
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].UnitDesignation != details[j].UnitDesignation {
			return details[i].UnitDesignation < details[j].UnitDesignation
		}
		return details[i].UnitID.String() < details[j].UnitID.String()
	})

	s.log.Debug("Report generated", "vote_id", voteID, "units", len(details), "ballots", len(ballots))
	return &models.ReportData{
		Vote:                 vote,
		Questions:            questions,
		Results:              results,
		ParticipationDetails: details,
		GeneratedAt:          s.now().UTC(),
	}, nil
}
