package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
)

const ballotColumns = `id, vote_id, user_id, unit_id, delegation_id, is_delegated, answers,
	vote_weight, response_hash, submitted_at`

func scanBallot(s rowScanner) (*models.Ballot, error) {
	var (
		b            models.Ballot
		delegationID uuid.NullUUID
		answers      string
	)
	if err := s.Scan(&b.ID, &b.VoteID, &b.UserID, &b.UnitID, &delegationID, &b.IsDelegated, &answers,
		&b.VoteWeight, &b.ResponseHash, &b.SubmittedAt); err != nil {
		return nil, err
	}
	b.DelegationID = uuidPtr(delegationID)
	if err := json.Unmarshal([]byte(answers), &b.Answers); err != nil {
		return nil, fmt.Errorf("ballot %s answers: %w", b.ID, err)
	}
	b.SubmittedAt = b.SubmittedAt.UTC()
	return &b, nil
}

// ==================== Ballot Methods ====================

// UpsertBallot records the ballot of (vote, unit) while the vote is active,
// appends the audit entry and recomputes participation from the stored
// ballots, all in one transaction. With overwrite, a re-cast replaces the
// previous ballot and keeps its ID; without, it fails with ErrDuplicate.
// b.ID is set to the stored ballot's ID. Returns the new participation count.
func (r *Repository) UpsertBallot(ctx context.Context, b *models.Ballot, event models.AuditEvent, overwrite bool) (int, error) {
	answers, err := json.Marshal(b.Answers)
	if err != nil {
		return 0, err
	}

	conflict := `DO NOTHING`
	if overwrite {
		conflict = `DO UPDATE SET user_id = excluded.user_id, delegation_id = excluded.delegation_id,
			is_delegated = excluded.is_delegated, answers = excluded.answers, vote_weight = excluded.vote_weight,
			response_hash = excluded.response_hash, submitted_at = excluded.submitted_at`
	}

	var participation int
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		var storedID uuid.UUID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO vote_responses (id, vote_id, user_id, unit_id, delegation_id, is_delegated, answers,
				vote_weight, response_hash, submitted_at)
			SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
			WHERE EXISTS (SELECT 1 FROM votes WHERE id = ? AND status = 'active')
			ON CONFLICT(vote_id, unit_id) `+conflict+`
			RETURNING id
		`, b.ID, b.VoteID, b.UserID, b.UnitID, nullUUID(b.DelegationID), b.IsDelegated, string(answers),
			b.VoteWeight, b.ResponseHash, b.SubmittedAt.UTC(), b.VoteID).Scan(&storedID)
		if errors.Is(err, sql.ErrNoRows) {
			if !overwrite {
				exists, herr := hasBallot(ctx, tx, b.VoteID, b.UnitID)
				if herr != nil {
					return herr
				}
				if exists {
					return ErrDuplicate
				}
			}
			return missingOrConflict(ctx, tx, b.VoteID)
		}
		if err != nil {
			return err
		}
		b.ID = storedID

		if _, err := tx.ExecContext(ctx, `
			UPDATE votes SET participation_count = (SELECT COUNT(*) FROM vote_responses WHERE vote_id = ?),
				updated_at = ?
			WHERE id = ?
		`, b.VoteID, b.SubmittedAt.UTC(), b.VoteID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `SELECT participation_count FROM votes WHERE id = ?`, b.VoteID).Scan(&participation); err != nil {
			return err
		}
		return appendAudit(ctx, tx, b.VoteID, event, b.SubmittedAt)
	})
	if err != nil {
		return 0, err
	}
	return participation, nil
}

// GetBallot retrieves the current ballot of a unit
func (r *Repository) GetBallot(ctx context.Context, voteID, unitID uuid.UUID) (*models.Ballot, error) {
	b, err := scanBallot(r.db.QueryRowContext(ctx, `
		SELECT `+ballotColumns+` FROM vote_responses WHERE vote_id = ? AND unit_id = ?
	`, voteID, unitID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListBallots returns every current ballot of a vote
func (r *Repository) ListBallots(ctx context.Context, voteID uuid.UUID) ([]models.Ballot, error) {
	return listBallots(ctx, r.db, voteID)
}

// HasBallot reports whether the unit has a ballot for the vote
func (r *Repository) HasBallot(ctx context.Context, voteID, unitID uuid.UUID) (bool, error) {
	return hasBallot(ctx, r.db, voteID, unitID)
}

func listBallots(ctx context.Context, q dbtx, voteID uuid.UUID) ([]models.Ballot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+ballotColumns+` FROM vote_responses WHERE vote_id = ? ORDER BY submitted_at, id
	`, voteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, err
		}
		ballots = append(ballots, *b)
	}
	return ballots, rows.Err()
}

func hasBallot(ctx context.Context, q dbtx, voteID, unitID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM vote_responses WHERE vote_id = ? AND unit_id = ?)
	`, voteID, unitID).Scan(&exists)
	return exists, err
}
