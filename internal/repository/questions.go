package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
)

const questionColumns = `id, vote_id, question_text, description, question_type, options,
	display_order, is_required, created_at, updated_at`

func scanQuestion(s rowScanner) (*models.VoteQuestion, error) {
	var (
		q           models.VoteQuestion
		description sql.NullString
		qType       string
		options     string
	)
	if err := s.Scan(&q.ID, &q.VoteID, &q.Text, &description, &qType, &options,
		&q.DisplayOrder, &q.IsRequired, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Description = description.String
	q.Type = models.QuestionType(qType)
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, fmt.Errorf("question %s options: %w", q.ID, err)
	}
	q.CreatedAt = q.CreatedAt.UTC()
	q.UpdatedAt = q.UpdatedAt.UTC()
	return &q, nil
}

// ==================== Question Methods ====================

// AddQuestion inserts a question into a draft vote and records the audit entry
func (r *Repository) AddQuestion(ctx context.Context, q *models.VoteQuestion, event models.AuditEvent) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO vote_questions (id, vote_id, question_text, description, question_type, options,
				display_order, is_required, created_at, updated_at)
			SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
			WHERE EXISTS (SELECT 1 FROM votes WHERE id = ? AND status = 'draft')
		`, q.ID, q.VoteID, q.Text, nullString(q.Description), string(q.Type), string(options),
			q.DisplayOrder, q.IsRequired, q.CreatedAt.UTC(), q.UpdatedAt.UTC(), q.VoteID)
		if err != nil {
			return err
		}
		ok, err := checkAffected(res)
		if err != nil {
			return err
		}
		if !ok {
			return missingOrConflict(ctx, tx, q.VoteID)
		}
		return appendAudit(ctx, tx, q.VoteID, event, q.CreatedAt)
	})
}

// GetQuestion retrieves a question by ID
func (r *Repository) GetQuestion(ctx context.Context, id uuid.UUID) (*models.VoteQuestion, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM vote_questions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

// UpdateQuestion rewrites a question while its vote is still a draft
func (r *Repository) UpdateQuestion(ctx context.Context, q *models.VoteQuestion) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE vote_questions SET question_text = ?, description = ?, options = ?, display_order = ?,
			is_required = ?, updated_at = ?
		WHERE id = ? AND vote_id = ?
		  AND EXISTS (SELECT 1 FROM votes WHERE votes.id = vote_questions.vote_id AND votes.status = 'draft')
	`, q.Text, nullString(q.Description), string(options), q.DisplayOrder, q.IsRequired, q.UpdatedAt.UTC(), q.ID, q.VoteID)
	if err != nil {
		return err
	}
	ok, err := checkAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return r.questionMissingOrConflict(ctx, r.db, q.VoteID, q.ID)
	}
	return nil
}

// DeleteQuestion removes a question from a draft vote and records the audit entry
func (r *Repository) DeleteQuestion(ctx context.Context, voteID, questionID uuid.UUID, now time.Time, event models.AuditEvent) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM vote_questions
			WHERE id = ? AND vote_id = ?
			  AND EXISTS (SELECT 1 FROM votes WHERE votes.id = vote_questions.vote_id AND votes.status = 'draft')
		`, questionID, voteID)
		if err != nil {
			return err
		}
		ok, err := checkAffected(res)
		if err != nil {
			return err
		}
		if !ok {
			return r.questionMissingOrConflict(ctx, tx, voteID, questionID)
		}
		return appendAudit(ctx, tx, voteID, event, now)
	})
}

// ListQuestions returns a vote's questions in display order
func (r *Repository) ListQuestions(ctx context.Context, voteID uuid.UUID) ([]models.VoteQuestion, error) {
	return listQuestions(ctx, r.db, voteID)
}

// CountQuestions returns how many questions a vote has
func (r *Repository) CountQuestions(ctx context.Context, voteID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote_questions WHERE vote_id = ?`, voteID).Scan(&n)
	return n, err
}

func listQuestions(ctx context.Context, q dbtx, voteID uuid.UUID) ([]models.VoteQuestion, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+questionColumns+` FROM vote_questions
		WHERE vote_id = ?
		ORDER BY display_order, created_at, id
	`, voteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.VoteQuestion{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *question)
	}
	return questions, rows.Err()
}

func (r *Repository) questionMissingOrConflict(ctx context.Context, q dbtx, voteID, questionID uuid.UUID) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM vote_questions WHERE id = ? AND vote_id = ?`, questionID, voteID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrStatusConflict
}
