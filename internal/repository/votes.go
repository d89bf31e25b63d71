package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

const voteColumns = `id, organization_id, building_id, title, description, start_at, end_at, status,
	quorum_type, quorum_percentage, allow_delegation, anonymous_voting, participation_count,
	eligible_count, quorum_met, results, results_calculated_at, created_by, published_by,
	published_at, cancelled_by, cancelled_at, cancellation_reason, created_at, updated_at`

func scanVote(s rowScanner) (*models.Vote, error) {
	var (
		v                                  models.Vote
		description, results, cancelReason sql.NullString
		startAt, calculatedAt              sql.NullTime
		publishedAt, cancelledAt           sql.NullTime
		quorumPct, eligible                sql.NullInt64
		quorumMet                          sql.NullBool
		publishedBy, cancelledBy           uuid.NullUUID
		status, quorumType                 string
	)
	err := s.Scan(
		&v.ID, &v.OrganizationID, &v.BuildingID, &v.Title, &description, &startAt, &v.EndAt, &status,
		&quorumType, &quorumPct, &v.AllowDelegation, &v.AnonymousVoting, &v.ParticipationCount,
		&eligible, &quorumMet, &results, &calculatedAt, &v.CreatedBy, &publishedBy,
		&publishedAt, &cancelledBy, &cancelledAt, &cancelReason, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Description = description.String
	v.StartAt = timePtr(startAt)
	v.EndAt = v.EndAt.UTC()
	v.Status = models.VoteStatus(status)
	v.QuorumType = models.QuorumType(quorumType)
	if quorumPct.Valid {
		pct := int(quorumPct.Int64)
		v.QuorumPercentage = &pct
	}
	if eligible.Valid {
		n := int(eligible.Int64)
		v.EligibleCount = &n
	}
	if quorumMet.Valid {
		met := quorumMet.Bool
		v.QuorumMet = &met
	}
	if results.Valid && results.String != "" {
		v.Results = json.RawMessage(results.String)
	}
	v.ResultsCalculatedAt = timePtr(calculatedAt)
	v.PublishedBy = uuidPtr(publishedBy)
	v.PublishedAt = timePtr(publishedAt)
	v.CancelledBy = uuidPtr(cancelledBy)
	v.CancelledAt = timePtr(cancelledAt)
	v.CancellationReason = cancelReason.String
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// ==================== Vote Methods ====================

// CreateVote inserts a draft vote and its creation audit entry
func (r *Repository) CreateVote(ctx context.Context, v *models.Vote, event models.AuditEvent) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO votes (id, organization_id, building_id, title, description, start_at, end_at, status,
				quorum_type, quorum_percentage, allow_delegation, anonymous_voting, participation_count,
				created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
		`, v.ID, v.OrganizationID, v.BuildingID, v.Title, nullString(v.Description), nullTime(v.StartAt),
			v.EndAt.UTC(), string(v.Status), string(v.QuorumType), nullInt(v.QuorumPercentage),
			v.AllowDelegation, v.AnonymousVoting, v.CreatedBy, v.CreatedAt.UTC(), v.UpdatedAt.UTC())
		if err != nil {
			return err
		}
		return appendAudit(ctx, tx, v.ID, event, v.CreatedAt)
	})
}

// GetVote retrieves a vote by ID
func (r *Repository) GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error) {
	return getVote(ctx, r.db, id)
}

func getVote(ctx context.Context, q dbtx, id uuid.UUID) (*models.Vote, error) {
	v, err := scanVote(q.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM votes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// ListVotes returns votes matching the filter, newest first
func (r *Repository) ListVotes(ctx context.Context, f models.VoteFilter) ([]models.Vote, error) {
	var (
		where []string
		args  []any
	)
	if f.OrganizationID != nil {
		where = append(where, "organization_id = ?")
		args = append(args, *f.OrganizationID)
	}
	if f.BuildingID != nil {
		where = append(where, "building_id = ?")
		args = append(args, *f.BuildingID)
	}
	if f.CreatedBy != nil {
		where = append(where, "created_by = ?")
		args = append(args, *f.CreatedBy)
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}

	query := `SELECT ` + voteColumns + ` FROM votes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, *v)
	}
	return votes, rows.Err()
}

// UpdateDraftVote rewrites the editable fields of a vote still in draft
func (r *Repository) UpdateDraftVote(ctx context.Context, v *models.Vote) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE votes SET title = ?, description = ?, start_at = ?, end_at = ?, quorum_type = ?,
			quorum_percentage = ?, allow_delegation = ?, anonymous_voting = ?, updated_at = ?
		WHERE id = ? AND status = 'draft'
	`, v.Title, nullString(v.Description), nullTime(v.StartAt), v.EndAt.UTC(), string(v.QuorumType),
		nullInt(v.QuorumPercentage), v.AllowDelegation, v.AnonymousVoting, v.UpdatedAt.UTC(), v.ID)
	if err != nil {
		return err
	}
	ok, err := checkAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return missingOrConflict(ctx, r.db, v.ID)
	}
	return nil
}

// DeleteDraftVote removes a draft vote and its questions. Audit entries stay.
func (r *Repository) DeleteDraftVote(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM votes WHERE id = ? AND status = 'draft'`, id)
	if err != nil {
		return err
	}
	ok, err := checkAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return missingOrConflict(ctx, r.db, id)
	}
	return nil
}

// PublishParams carries the values frozen when a draft is published
type PublishParams struct {
	Status        models.VoteStatus
	StartAt       time.Time
	EligibleCount int
	PublishedBy   uuid.UUID
	Now           time.Time
	Audit         models.AuditEvent
}

// PublishVote moves a draft to scheduled or active and records the audit entry
func (r *Repository) PublishVote(ctx context.Context, id uuid.UUID, p PublishParams) (*models.Vote, error) {
	var vote *models.Vote
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE votes SET status = ?, start_at = ?, eligible_count = ?, published_by = ?,
				published_at = ?, updated_at = ?
			WHERE id = ? AND status = 'draft'
		`, string(p.Status), p.StartAt.UTC(), p.EligibleCount, p.PublishedBy, p.Now.UTC(), p.Now.UTC(), id)
		if err != nil {
			return err
		}
		ok, err := checkAffected(res)
		if err != nil {
			return err
		}
		if !ok {
			return missingOrConflict(ctx, tx, id)
		}
		if err := appendAudit(ctx, tx, id, p.Audit, p.Now); err != nil {
			return err
		}
		vote, err = getVote(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vote, nil
}

// CancelVote cancels a draft, scheduled or active vote
func (r *Repository) CancelVote(ctx context.Context, id, cancelledBy uuid.UUID, reason string, now time.Time, event models.AuditEvent) (*models.Vote, error) {
	var vote *models.Vote
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE votes SET status = 'cancelled', cancelled_by = ?, cancelled_at = ?,
				cancellation_reason = ?, updated_at = ?
			WHERE id = ? AND status IN ('draft', 'scheduled', 'active')
		`, cancelledBy, now.UTC(), reason, now.UTC(), id)
		if err != nil {
			return err
		}
		ok, err := checkAffected(res)
		if err != nil {
			return err
		}
		if !ok {
			return missingOrConflict(ctx, tx, id)
		}
		if err := appendAudit(ctx, tx, id, event, now); err != nil {
			return err
		}
		vote, err = getVote(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vote, nil
}

// CloseFunc computes the frozen results and the audit events to record from
// a snapshot read inside the closing transaction.
type CloseFunc func(vote *models.Vote, questions []models.VoteQuestion, ballots []models.Ballot) (*models.Results, []models.AuditEvent, error)

// CloseVote closes an active vote. Reading ballots, writing results and
// appending the audit entries happen in one transaction, so no ballot can
// land between the tally and the status change.
func (r *Repository) CloseVote(ctx context.Context, id uuid.UUID, now time.Time, calc CloseFunc) (*models.Vote, *models.Results, error) {
	var (
		vote    *models.Vote
		results *models.Results
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getVote(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != models.VoteStatusActive {
			return ErrStatusConflict
		}
		questions, err := listQuestions(ctx, tx, id)
		if err != nil {
			return err
		}
		ballots, err := listBallots(ctx, tx, id)
		if err != nil {
			return err
		}

		var events []models.AuditEvent
		results, events, err = calc(current, questions, ballots)
		if err != nil {
			return err
		}
		snapshot, err := json.Marshal(results)
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE votes SET status = 'closed', results = ?, results_calculated_at = ?,
				participation_count = ?, quorum_met = ?, updated_at = ?
			WHERE id = ? AND status = 'active'
		`, string(snapshot), results.CalculatedAt.UTC(), results.ParticipationCount, results.QuorumMet, now.UTC(), id)
		if err != nil {
			return err
		}
		ok, err := checkAffected(res)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStatusConflict
		}
		for _, event := range events {
			if err := appendAudit(ctx, tx, id, event, now); err != nil {
				return err
			}
		}
		vote, err = getVote(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return vote, results, nil
}

// ActivateScheduledVotes flips every scheduled vote whose start has passed to
// active and returns their IDs. Running it again is a no-op.
func (r *Repository) ActivateScheduledVotes(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE votes SET status = 'active', updated_at = ?
		WHERE status = 'scheduled' AND start_at <= ?
		RETURNING id
	`, now.UTC(), now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ListExpiredVoteIDs returns active votes whose end time has passed
func (r *Repository) ListExpiredVoteIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM votes WHERE status = 'active' AND end_at <= ? ORDER BY end_at, id
	`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// CountVotesByOrganization counts all votes of an organization
func (r *Repository) CountVotesByOrganization(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE organization_id = ?`, organizationID).Scan(&n)
	return n, err
}

// CountActiveVotesByBuilding counts the active votes of a building
func (r *Repository) CountActiveVotesByBuilding(ctx context.Context, buildingID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE building_id = ? AND status = 'active'`, buildingID).Scan(&n)
	return n, err
}

func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
