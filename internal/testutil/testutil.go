package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

// SeedOwnedUnit creates a unit in the building owned by userID. A zero share
// leaves the ownership share unset.
func SeedOwnedUnit(t *testing.T, repo *repository.Repository, buildingID, userID uuid.UUID, designation string, share float64) models.Unit {
	t.Helper()
	ctx := context.Background()

	unit := models.Unit{ID: uuid.New(), BuildingID: buildingID, Designation: designation}
	if share != 0 {
		unit.OwnershipShare = decimal.NewNullDecimal(decimal.NewFromFloat(share))
	}
	if err := repo.UpsertUnit(ctx, &unit); err != nil {
		t.Fatalf("UpsertUnit failed: %v", err)
	}
	res := models.Resident{
		UnitID:     unit.ID,
		UserID:     userID,
		Type:       models.ResidentOwner,
		MoveInDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.UpsertResident(ctx, res); err != nil {
		t.Fatalf("UpsertResident failed: %v", err)
	}
	return unit
}

// SeedDelegation grants delegateID voting rights over the unit
func SeedDelegation(t *testing.T, repo *repository.Repository, unit models.Unit, ownerID, delegateID uuid.UUID, scope models.DelegationScope, expiresAt *time.Time) models.Delegation {
	t.Helper()

	d := models.Delegation{
		ID:             uuid.New(),
		OwnerUserID:    ownerID,
		DelegateUserID: delegateID,
		UnitID:         unit.ID,
		Scope:          scope,
		Status:         models.DelegationActive,
		ExpiresAt:      expiresAt,
		CreatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.UpsertDelegation(context.Background(), &d); err != nil {
		t.Fatalf("UpsertDelegation failed: %v", err)
	}
	return d
}
