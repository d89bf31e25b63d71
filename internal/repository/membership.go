package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
)

const unitColumns = `u.id, u.building_id, u.designation, u.ownership_share`

func scanUnit(s rowScanner) (*models.Unit, error) {
	var u models.Unit
	if err := s.Scan(&u.ID, &u.BuildingID, &u.Designation, &u.OwnershipShare); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUnits(rows *sql.Rows) ([]models.Unit, error) {
	units := []models.Unit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

// ==================== Membership Methods ====================

// UpsertUnit creates or updates a unit
func (r *Repository) UpsertUnit(ctx context.Context, u *models.Unit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO units (id, building_id, designation, ownership_share, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			building_id = excluded.building_id,
			designation = excluded.designation,
			ownership_share = excluded.ownership_share,
			updated_at = excluded.updated_at
	`, u.ID, u.BuildingID, u.Designation, u.OwnershipShare, time.Now().UTC())
	return err
}

// GetUnit retrieves a unit by ID
func (r *Repository) GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	u, err := scanUnit(r.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units u WHERE u.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// UpsertResident creates or updates the link between a user and a unit
func (r *Repository) UpsertResident(ctx context.Context, res models.Resident) error {
	var moveIn *time.Time
	if !res.MoveInDate.IsZero() {
		moveIn = &res.MoveInDate
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO unit_residents (unit_id, user_id, resident_type, move_in_date, move_out_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(unit_id, user_id) DO UPDATE SET
			resident_type = excluded.resident_type,
			move_in_date = excluded.move_in_date,
			move_out_date = excluded.move_out_date
	`, res.UnitID, res.UserID, string(res.Type), nullTime(moveIn), nullTime(res.MoveOutDate))
	return err
}

// MoveOut ends a user's residency in a unit
func (r *Repository) MoveOut(ctx context.Context, unitID, userID uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE unit_residents SET move_out_date = ? WHERE unit_id = ? AND user_id = ?
	`, at.UTC(), unitID, userID)
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
	return nil
}

// UpsertDelegation creates or updates a delegation
func (r *Repository) UpsertDelegation(ctx context.Context, d *models.Delegation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO delegations (id, owner_user_id, delegate_user_id, unit_id, scope, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_user_id = excluded.owner_user_id,
			delegate_user_id = excluded.delegate_user_id,
			unit_id = excluded.unit_id,
			scope = excluded.scope,
			status = excluded.status,
			expires_at = excluded.expires_at
	`, d.ID, d.OwnerUserID, d.DelegateUserID, d.UnitID, string(d.Scope), string(d.Status),
		nullTime(d.ExpiresAt), d.CreatedAt.UTC())
	return err
}

// OwnerUnits returns the distinct units of a building with at least one
// current owner resident.
func (r *Repository) OwnerUnits(ctx context.Context, buildingID uuid.UUID) ([]models.Unit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+unitColumns+` FROM units u
		WHERE u.building_id = ?
		  AND EXISTS (
			SELECT 1 FROM unit_residents ur
			WHERE ur.unit_id = u.id AND ur.resident_type = 'owner' AND ur.move_out_date IS NULL
		  )
		ORDER BY u.designation, u.id
	`, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

// UserOwnedUnits returns the units of a building the user currently owns
func (r *Repository) UserOwnedUnits(ctx context.Context, buildingID, userID uuid.UUID) ([]models.Unit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+unitColumns+` FROM units u
		JOIN unit_residents ur ON ur.unit_id = u.id
		WHERE u.building_id = ?
		  AND ur.user_id = ?
		  AND ur.resident_type = 'owner'
		  AND ur.move_out_date IS NULL
		ORDER BY u.designation, u.id
	`, buildingID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

// ActiveDelegations returns the delegations that currently let the user vote
// on someone else's behalf.
func (r *Repository) ActiveDelegations(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Delegation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_user_id, delegate_user_id, unit_id, scope, status, expires_at, created_at
		FROM delegations
		WHERE delegate_user_id = ?
		  AND status = 'active'
		  AND scope IN ('voting', 'full')
		  AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY created_at, id
	`, userID, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	delegations := []models.Delegation{}
	for rows.Next() {
		var (
			d             models.Delegation
			scope, status string
			expiresAt     sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.OwnerUserID, &d.DelegateUserID, &d.UnitID, &scope, &status, &expiresAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Scope = models.DelegationScope(scope)
		d.Status = models.DelegationStatus(status)
		d.ExpiresAt = timePtr(expiresAt)
		d.CreatedAt = d.CreatedAt.UTC()
		delegations = append(delegations, d)
	}
	return delegations, rows.Err()
}
