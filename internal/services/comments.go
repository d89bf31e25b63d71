package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
)

// CommentServiceRepository defines the repository methods needed by CommentService
type CommentServiceRepository interface {
	repository.CommentRepository
	GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error)
}

// CommentService handles vote discussion threads
type CommentService struct {
	log  logger.Logger
	repo CommentServiceRepository
	now  Clock
}

// NewCommentService creates a new CommentService
func NewCommentService(log logger.Logger, repo CommentServiceRepository) *CommentService {
	return &CommentService{log: log, repo: repo, now: time.Now}
}

// SetClock replaces the time source
func (s *CommentService) SetClock(c Clock) {
	s.now = c
}

// AddComment posts a comment or a reply on a published vote
func (s *CommentService) AddComment(ctx context.Context, req models.CreateComment, meta models.RequestMeta) (*models.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errors.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return nil, errors.Validationf("content must be at most %d characters", models.MaxCommentLength)
	}

	vote, err := s.repo.GetVote(ctx, req.VoteID)
	if err != nil {
		return nil, notFound(err, ErrVoteNotFound)
	}
	if vote.Status == models.VoteStatusDraft {
		return nil, ErrDraftComments
	}

	if req.ParentID != nil {
		parent, err := s.repo.GetComment(ctx, *req.ParentID)
		if err != nil {
			return nil, notFound(err, ErrCommentNotFound)
		}
		if parent.VoteID != req.VoteID {
			return nil, errors.Validation("parent comment belongs to another vote")
		}
	}

	now := s.now().UTC()
	c := &models.Comment{
		ID:        uuid.New(),
		VoteID:    req.VoteID,
		UserID:    req.UserID,
		ParentID:  req.ParentID,
		Content:   content,
		AIConsent: req.AIConsent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	event := models.AuditEvent{
		UserID:    &req.UserID,
		Action:    models.AuditCommentAdded,
		Data:      map[string]any{"comment_id": c.ID, "parent_id": c.ParentID},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.AddComment(ctx, c, event); err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns the top-level comments of a vote with their reply counts
func (s *CommentService) ListComments(ctx context.Context, voteID uuid.UUID, includeHidden bool) ([]models.Comment, error) {
	if _, err := s.repo.GetVote(ctx, voteID); err != nil {
		return nil, notFound(err, ErrVoteNotFound)
	}
	return s.repo.ListComments(ctx, voteID, includeHidden)
}

// ListReplies returns the replies to a comment
func (s *CommentService) ListReplies(ctx context.Context, voteID, parentID uuid.UUID, includeHidden bool) ([]models.Comment, error) {
	parent, err := s.repo.GetComment(ctx, parentID)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	if parent.VoteID != voteID {
		return nil, ErrCommentNotFound
	}
	return s.repo.ListReplies(ctx, parentID, includeHidden)
}

// HideComment hides a comment from regular listings
func (s *CommentService) HideComment(ctx context.Context, voteID, commentID, userID uuid.UUID, reason string, meta models.RequestMeta) error {
	reason = strings.TrimSpace(reason)
	event := models.AuditEvent{
		UserID:    &userID,
		Action:    models.AuditCommentHidden,
		Data:      map[string]any{"comment_id": commentID, "reason": reason},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.HideComment(ctx, voteID, commentID, userID, reason, s.now().UTC(), event); err != nil {
		return notFound(err, ErrCommentNotFound)
	}
	s.log.Info("Comment hidden", "vote_id", voteID, "comment_id", commentID)
	return nil
}
