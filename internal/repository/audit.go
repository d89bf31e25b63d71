package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
)

// ListAudit returns a vote's audit trail in creation order. Entries created
// at the same instant keep their insertion order.
func (r *Repository) ListAudit(ctx context.Context, voteID uuid.UUID) ([]models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vote_id, user_id, action, data_hash, data_snapshot, ip_address, user_agent, created_at
		FROM vote_audit_log
		WHERE vote_id = ?
		ORDER BY created_at, seq
	`, voteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var (
			e                   models.AuditEntry
			userID              uuid.NullUUID
			action              string
			snapshot, ip, agent sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.VoteID, &userID, &action, &e.DataHash, &snapshot, &ip, &agent, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = uuidPtr(userID)
		e.Action = models.AuditAction(action)
		if snapshot.Valid {
			e.DataSnapshot = json.RawMessage(snapshot.String)
		}
		e.IPAddress = ip.String
		e.UserAgent = agent.String
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
