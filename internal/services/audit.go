package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/integrity"
	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
)

// AuditServiceRepository defines the repository methods needed by AuditService
type AuditServiceRepository interface {
	repository.AuditRepository
	GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error)
}

// AuditService reads and verifies a vote's audit trail
type AuditService struct {
	log  logger.Logger
	repo AuditServiceRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(log logger.Logger, repo AuditServiceRepository) *AuditService {
	return &AuditService{log: log, repo: repo}
}

// GetAuditLog returns the vote's audit entries in creation order. The trail
// of a deleted draft is still returned.
func (s *AuditService) GetAuditLog(ctx context.Context, voteID uuid.UUID) ([]models.AuditEntry, error) {
	entries, err := s.repo.ListAudit(ctx, voteID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if _, err := s.repo.GetVote(ctx, voteID); err != nil {
			return nil, notFound(err, ErrVoteNotFound)
		}
	}
	return entries, nil
}

// VerifyAuditLog recomputes every entry's data hash from its snapshot. It
// detects edited payloads, not removed or reordered entries. When any entry
// fails, the verification is returned together with an integrity error.
func (s *AuditService) VerifyAuditLog(ctx context.Context, voteID uuid.UUID) (*models.AuditVerification, error) {
	entries, err := s.GetAuditLog(ctx, voteID)
	if err != nil {
		return nil, err
	}

	result := &models.AuditVerification{
		VoteID:     voteID,
		Entries:    len(entries),
		Valid:      true,
		Mismatches: []uuid.UUID{},
	}
	for _, e := range entries {
		if !integrity.Verify(e.DataSnapshot, e.DataHash) {
			result.Valid = false
			result.Mismatches = append(result.Mismatches, e.ID)
		}
	}
	if result.Valid {
		return result, nil
	}

	ids := make([]string, len(result.Mismatches))
	for i, id := range result.Mismatches {
		ids[i] = id.String()
	}
	s.log.Warn("Audit trail verification failed", "vote_id", voteID, "mismatches", len(ids))
	return result, errors.Integrityf("audit entries do not match their hashes: %s", strings.Join(ids, ", "))
}
