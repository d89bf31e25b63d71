package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
	"github.com/abrezinsky/ownervote/pkg/registry"
)

// MembershipProvider answers who owns what and who may vote for whom. The
// SQLite repository implements it directly; RegistryProvider reads the
// remote registry instead. GetUnit returns repository.ErrNotFound on a miss.
type MembershipProvider interface {
	OwnerUnits(ctx context.Context, buildingID uuid.UUID) ([]models.Unit, error)
	UserOwnedUnits(ctx context.Context, buildingID, userID uuid.UUID) ([]models.Unit, error)
	ActiveDelegations(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Delegation, error)
	GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error)
}

var _ MembershipProvider = (*repository.Repository)(nil)

// RegistryProvider serves membership straight from the registry
type RegistryProvider struct {
	client registry.Client
}

// NewRegistryProvider creates a MembershipProvider backed by the registry client
func NewRegistryProvider(client registry.Client) *RegistryProvider {
	return &RegistryProvider{client: client}
}

var _ MembershipProvider = (*RegistryProvider)(nil)

// OwnerUnits returns the building's units with at least one current owner
func (p *RegistryProvider) OwnerUnits(ctx context.Context, buildingID uuid.UUID) ([]models.Unit, error) {
	return p.ownedUnits(ctx, buildingID, func(r registry.Resident) bool { return true })
}

// UserOwnedUnits returns the building's units the user currently owns
func (p *RegistryProvider) UserOwnedUnits(ctx context.Context, buildingID, userID uuid.UUID) ([]models.Unit, error) {
	want := userID.String()
	return p.ownedUnits(ctx, buildingID, func(r registry.Resident) bool { return r.UserID == want })
}

func (p *RegistryProvider) ownedUnits(ctx context.Context, buildingID uuid.UUID, match func(registry.Resident) bool) ([]models.Unit, error) {
	units, err := p.client.FetchUnits(ctx, buildingID.String())
	if err != nil {
		return nil, err
	}
	residents, err := p.client.FetchResidents(ctx, buildingID.String())
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool)
	for _, r := range residents {
		if r.ResidentType == string(models.ResidentOwner) && r.MoveOutDate == nil && match(r) {
			owned[r.UnitID] = true
		}
	}

	out := []models.Unit{}
	for _, u := range units {
		if !owned[u.ID] {
			continue
		}
		unit, err := UnitFromRegistry(u)
		if err != nil {
			return nil, err
		}
		out = append(out, unit)
	}
	return out, nil
}

// ActiveDelegations returns the user's delegations that allow voting at now
func (p *RegistryProvider) ActiveDelegations(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Delegation, error) {
	raw, err := p.client.FetchUserDelegations(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	out := []models.Delegation{}
	for _, r := range raw {
		d, err := DelegationFromRegistry(r)
		if err != nil {
			return nil, err
		}
		if d.DelegateUserID == userID && d.VotingActiveAt(now) {
			out = append(out, d)
		}
	}
	return out, nil
}

// GetUnit fetches a single unit
func (p *RegistryProvider) GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	raw, err := p.client.FetchUnit(ctx, id.String())
	if registry.IsNotFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	unit, err := UnitFromRegistry(*raw)
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// UnitFromRegistry converts a registry unit. An empty share means unknown.
func UnitFromRegistry(u registry.Unit) (models.Unit, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return models.Unit{}, fmt.Errorf("registry unit id %q: %w", u.ID, err)
	}
	buildingID, err := uuid.Parse(u.BuildingID)
	if err != nil {
		return models.Unit{}, fmt.Errorf("registry unit %s building id %q: %w", u.ID, u.BuildingID, err)
	}
	unit := models.Unit{ID: id, BuildingID: buildingID, Designation: u.Designation}
	if share := u.OwnershipShare.String(); share != "" {
		d, err := decimal.NewFromString(share)
		if err != nil {
			return models.Unit{}, fmt.Errorf("registry unit %s ownership share %q: %w", u.ID, share, err)
		}
		unit.OwnershipShare = decimal.NewNullDecimal(d)
	}
	return unit, nil
}

// DelegationFromRegistry converts a registry delegation
func DelegationFromRegistry(r registry.Delegation) (models.Delegation, error) {
	var (
		d   models.Delegation
		err error
	)
	if d.ID, err = uuid.Parse(r.ID); err != nil {
		return d, fmt.Errorf("registry delegation id %q: %w", r.ID, err)
	}
	if d.OwnerUserID, err = uuid.Parse(r.OwnerUserID); err != nil {
		return d, fmt.Errorf("registry delegation %s owner: %w", r.ID, err)
	}
	if d.DelegateUserID, err = uuid.Parse(r.DelegateUserID); err != nil {
		return d, fmt.Errorf("registry delegation %s delegate: %w", r.ID, err)
	}
	if d.UnitID, err = uuid.Parse(r.UnitID); err != nil {
		return d, fmt.Errorf("registry delegation %s unit: %w", r.ID, err)
	}
	d.Scope = models.DelegationScope(r.Scope)
	d.Status = models.DelegationStatus(r.Status)
	if r.ExpiresAt != nil {
		t := r.ExpiresAt.UTC()
		d.ExpiresAt = &t
	}
	d.CreatedAt = r.CreatedAt.UTC()
	return d, nil
}

// SyncResult contains the result of a registry sync operation
type SyncResult struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Units       int    `json:"units"`
	Residents   int    `json:"residents"`
	Delegations int    `json:"delegations"`
	Skipped     int    `json:"skipped"`
}

// MembershipService copies registry membership into the local tables
type MembershipService struct {
	log    logger.Logger
	repo   repository.MembershipRepository
	client registry.Client
}

// NewMembershipService creates a new MembershipService. client may be nil
// when no registry is configured.
func NewMembershipService(log logger.Logger, repo repository.MembershipRepository, client registry.Client) *MembershipService {
	return &MembershipService{log: log, repo: repo, client: client}
}

// SyncBuilding pulls the building's units, residents and delegations from the
// registry and upserts them locally. Records the registry sends malformed are
// skipped and counted.
func (s *MembershipService) SyncBuilding(ctx context.Context, buildingID uuid.UUID) (*SyncResult, error) {
	if s.client == nil {
		return nil, ErrRegistryDisabled
	}
	bid := buildingID.String()

	units, err := s.client.FetchUnits(ctx, bid)
	if err != nil {
		return nil, fmt.Errorf("fetch units: %w", err)
	}
	residents, err := s.client.FetchResidents(ctx, bid)
	if err != nil {
		return nil, fmt.Errorf("fetch residents: %w", err)
	}
	delegations, err := s.client.FetchDelegations(ctx, bid)
	if err != nil {
		return nil, fmt.Errorf("fetch delegations: %w", err)
	}

	result := &SyncResult{Status: "success"}
	known := make(map[uuid.UUID]bool)

	for _, raw := range units {
		unit, err := UnitFromRegistry(raw)
		if err != nil {
			s.log.Warn("Skipping registry unit", "unit_id", raw.ID, "error", err)
			result.Skipped++
			continue
		}
		if err := s.repo.UpsertUnit(ctx, &unit); err != nil {
			return nil, err
		}
		known[unit.ID] = true
		result.Units++
	}

	for _, raw := range residents {
		res, err := residentFromRegistry(raw)
		if err != nil || !known[res.UnitID] {
			s.log.Warn("Skipping registry resident", "unit_id", raw.UnitID, "user_id", raw.UserID, "error", err)
			result.Skipped++
			continue
		}
		if err := s.repo.UpsertResident(ctx, res); err != nil {
			return nil, err
		}
		result.Residents++
	}

	for _, raw := range delegations {
		d, err := DelegationFromRegistry(raw)
		if err != nil || !known[d.UnitID] {
			s.log.Warn("Skipping registry delegation", "delegation_id", raw.ID, "error", err)
			result.Skipped++
			continue
		}
		if err := s.repo.UpsertDelegation(ctx, &d); err != nil {
			return nil, err
		}
		result.Delegations++
	}

	s.log.Info("Registry sync complete", "building_id", buildingID, "units", result.Units,
		"residents", result.Residents, "delegations", result.Delegations, "skipped", result.Skipped)
	if result.Skipped > 0 {
		result.Message = fmt.Sprintf("%d malformed records skipped", result.Skipped)
	}
	return result, nil
}

func residentFromRegistry(r registry.Resident) (models.Resident, error) {
	unitID, err := uuid.Parse(r.UnitID)
	if err != nil {
		return models.Resident{}, err
	}
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return models.Resident{}, err
	}
	res := models.Resident{UnitID: unitID, UserID: userID, Type: models.ResidentType(r.ResidentType)}
	if res.Type == "" {
		res.Type = models.ResidentOwner
	}
	if r.MoveInDate != nil {
		res.MoveInDate = r.MoveInDate.UTC()
	}
	if r.MoveOutDate != nil {
		t := r.MoveOutDate.UTC()
		res.MoveOutDate = &t
	}
	return res, nil
}
