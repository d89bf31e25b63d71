package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
)

const commentColumns = `c.id, c.vote_id, c.user_id, c.parent_id, c.content, c.hidden, c.hidden_by,
	c.hidden_at, c.hidden_reason, c.ai_consent, c.created_at, c.updated_at`

func scanComment(s rowScanner, withReplies bool) (*models.Comment, error) {
	var (
		c                  models.Comment
		parentID, hiddenBy uuid.NullUUID
		hiddenAt           sql.NullTime
		hiddenReason       sql.NullString
	)
	dest := []any{&c.ID, &c.VoteID, &c.UserID, &parentID, &c.Content, &c.Hidden, &hiddenBy,
		&hiddenAt, &hiddenReason, &c.AIConsent, &c.CreatedAt, &c.UpdatedAt}
	if withReplies {
		dest = append(dest, &c.ReplyCount)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	c.ParentID = uuidPtr(parentID)
	c.HiddenBy = uuidPtr(hiddenBy)
	c.HiddenAt = timePtr(hiddenAt)
	c.HiddenReason = hiddenReason.String
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// ==================== Comment Methods ====================

// AddComment inserts a comment and records the audit entry
func (r *Repository) AddComment(ctx context.Context, c *models.Comment, event models.AuditEvent) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vote_comments (id, vote_id, user_id, parent_id, content, hidden, ai_consent, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)
		`, c.ID, c.VoteID, c.UserID, nullUUID(c.ParentID), c.Content, c.AIConsent, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
		if err != nil {
			return err
		}
		return appendAudit(ctx, tx, c.VoteID, event, c.CreatedAt)
	})
}

// GetComment retrieves a comment by ID
func (r *Repository) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM vote_comments c WHERE c.id = ?`, id), false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListComments returns the top-level comments of a vote, oldest first, with
// their reply counts. Hidden comments and replies are skipped unless
// includeHidden is set.
func (r *Repository) ListComments(ctx context.Context, voteID uuid.UUID, includeHidden bool) ([]models.Comment, error) {
	return r.listComments(ctx, `c.vote_id = ? AND c.parent_id IS NULL`, voteID, includeHidden)
}

// ListReplies returns the replies to a comment, oldest first
func (r *Repository) ListReplies(ctx context.Context, parentID uuid.UUID, includeHidden bool) ([]models.Comment, error) {
	return r.listComments(ctx, `c.parent_id = ?`, parentID, includeHidden)
}

func (r *Repository) listComments(ctx context.Context, cond string, id uuid.UUID, includeHidden bool) ([]models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+commentColumns+`,
			(SELECT COUNT(*) FROM vote_comments rc WHERE rc.parent_id = c.id AND (? OR rc.hidden = 0))
		FROM vote_comments c
		WHERE `+cond+` AND (? OR c.hidden = 0)
		ORDER BY c.created_at, c.id
	`, includeHidden, id, includeHidden)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows, true)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// HideComment hides a comment and records the audit entry
func (r *Repository) HideComment(ctx context.Context, voteID, commentID, hiddenBy uuid.UUID, reason string, now time.Time, event models.AuditEvent) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE vote_comments SET hidden = 1, hidden_by = ?, hidden_at = ?, hidden_reason = ?, updated_at = ?
			WHERE id = ? AND vote_id = ?
		`, hiddenBy, now.UTC(), nullString(reason), now.UTC(), commentID, voteID)
		if err != nil {
			return err
		}
		ok, err := checkAffected(res)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return appendAudit(ctx, tx, voteID, event, now)
	})
}
