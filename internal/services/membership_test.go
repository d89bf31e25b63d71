package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
	"github.com/abrezinsky/ownervote/internal/repository/mock"
	"github.com/abrezinsky/ownervote/internal/services"
	"github.com/abrezinsky/ownervote/internal/testutil"
	"github.com/abrezinsky/ownervote/pkg/registry"
)

// registryFixture is one building in the mock registry: u1 and u2 owned by
// owner, u3 owned by a former owner who moved out, and a voting delegation of
// u2 to delegate.
type registryFixture struct {
	building, owner, delegate uuid.UUID
	u1, u2, u3                uuid.UUID
	delegation                uuid.UUID
	client                    *registry.MockClient
}

func newRegistryFixture(opts ...registry.MockOption) *registryFixture {
	f := &registryFixture{
		building: uuid.New(), owner: uuid.New(), delegate: uuid.New(),
		u1: uuid.New(), u2: uuid.New(), u3: uuid.New(), delegation: uuid.New(),
	}
	out := testNow.Add(-24 * time.Hour)
	former := registry.MoveIn(f.u3.String(), uuid.NewString())
	former.MoveOutDate = &out
	b := f.building.String()

	base := []registry.MockOption{
		registry.WithUnits([]registry.Unit{
			{ID: f.u1.String(), BuildingID: b, Designation: "1A", OwnershipShare: "0.40"},
			{ID: f.u2.String(), BuildingID: b, Designation: "1B", OwnershipShare: "0.35"},
			{ID: f.u3.String(), BuildingID: b, Designation: "1C"},
			{ID: uuid.NewString(), BuildingID: uuid.NewString(), Designation: "X"},
		}),
		registry.WithResidents([]registry.Resident{
			registry.MoveIn(f.u1.String(), f.owner.String()),
			registry.MoveIn(f.u2.String(), f.owner.String()),
			former,
			{UnitID: f.u1.String(), UserID: uuid.NewString(), ResidentType: "tenant"},
		}),
		registry.WithDelegations([]registry.Delegation{
			{
				ID: f.delegation.String(), OwnerUserID: f.owner.String(), DelegateUserID: f.delegate.String(),
				UnitID: f.u2.String(), Scope: "voting", Status: "active", CreatedAt: testNow.Add(-time.Hour),
			},
			{
				ID: uuid.NewString(), OwnerUserID: f.owner.String(), DelegateUserID: f.delegate.String(),
				UnitID: f.u1.String(), Scope: "financial", Status: "active", CreatedAt: testNow.Add(-time.Hour),
			},
		}),
	}
	f.client = registry.NewMockClient(append(base, opts...)...)
	return f
}

func TestRegistryProvider_Membership(t *testing.T) {
	f := newRegistryFixture()
	p := services.NewRegistryProvider(f.client)
	ctx := context.Background()

	owners, err := p.OwnerUnits(ctx, f.building)
	if err != nil {
		t.Fatalf("OwnerUnits failed: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 units with a current owner, got %d", len(owners))
	}
	if owners[0].VoteWeight().String() != "0.4" {
		t.Errorf("expected parsed share 0.4, got %s", owners[0].VoteWeight())
	}

	mine, err := p.UserOwnedUnits(ctx, f.building, f.owner)
	if err != nil || len(mine) != 2 {
		t.Errorf("expected owner to own 2 units, got %d (%v)", len(mine), err)
	}
	none, _ := p.UserOwnedUnits(ctx, f.building, f.delegate)
	if len(none) != 0 {
		t.Errorf("expected delegate to own nothing, got %d", len(none))
	}

	delegations, err := p.ActiveDelegations(ctx, f.delegate, testNow)
	if err != nil {
		t.Fatalf("ActiveDelegations failed: %v", err)
	}
	if len(delegations) != 1 || delegations[0].ID != f.delegation {
		t.Errorf("expected only the voting delegation, got %+v", delegations)
	}

	unit, err := p.GetUnit(ctx, f.u3)
	if err != nil || unit.OwnershipShare.Valid {
		t.Errorf("expected unit without share, got %+v (%v)", unit, err)
	}
	if _, err := p.GetUnit(ctx, uuid.New()); !stderrors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected repository.ErrNotFound, got %v", err)
	}
}

func TestRegistryProvider_Errors(t *testing.T) {
	boom := stderrors.New("registry down")
	f := newRegistryFixture(registry.WithResidentsError(boom), registry.WithDelegationsError(boom))
	p := services.NewRegistryProvider(f.client)
	ctx := context.Background()

	if _, err := p.OwnerUnits(ctx, f.building); !stderrors.Is(err, boom) {
		t.Errorf("expected residents error, got %v", err)
	}
	if _, err := p.ActiveDelegations(ctx, f.delegate, testNow); !stderrors.Is(err, boom) {
		t.Errorf("expected delegations error, got %v", err)
	}

	bad := registry.NewMockClient(registry.WithUnits([]registry.Unit{{ID: "u-1", BuildingID: f.building.String()}}),
		registry.WithResidents([]registry.Resident{registry.MoveIn("u-1", f.owner.String())}))
	if _, err := services.NewRegistryProvider(bad).OwnerUnits(ctx, f.building); err == nil {
		t.Error("expected malformed unit id to fail")
	}
}

func TestUnitFromRegistry_BadShare(t *testing.T) {
	_, err := services.UnitFromRegistry(registry.Unit{ID: uuid.NewString(), BuildingID: uuid.NewString(), OwnershipShare: "a lot"})
	if err == nil {
		t.Error("expected error for unparsable share")
	}
}

func TestEligibility_ThroughRegistry(t *testing.T) {
	f := newRegistryFixture()
	repo := testutil.NewTestRepository(t)
	log := logger.New()
	resolver := services.NewEligibilityResolver(services.NewRegistryProvider(f.client), repo)

	votes := services.NewVoteService(log, repo, resolver)
	votes.SetClock(func() time.Time { return testNow })
	ballots := services.NewBallotService(log, repo, resolver)
	ballots.SetClock(func() time.Time { return testNow })
	ctx := context.Background()

	v, err := votes.CreatePoll(ctx, models.CreateVote{
		OrganizationID: uuid.New(), BuildingID: f.building, Title: "Registry vote",
		EndAt: testNow.Add(time.Hour), CreatedBy: f.owner,
	}, models.RequestMeta{})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	q, err := votes.AddQuestion(ctx, v.ID, models.CreateQuestion{Text: "Approve?", Type: models.QuestionTypeYesNo}, f.owner, models.RequestMeta{})
	if err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}
	v, err = votes.Publish(ctx, v.ID, nil, f.owner, models.RequestMeta{})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if v.EligibleTotal() != 2 {
		t.Errorf("expected eligible count 2 from registry, got %d", v.EligibleTotal())
	}

	e, err := ballots.CheckEligibility(ctx, v.ID, f.delegate)
	if err != nil {
		t.Fatalf("CheckEligibility failed: %v", err)
	}
	if !e.CanVote || len(e.EligibleUnits) != 1 || e.EligibleUnits[0].UnitID != f.u2 {
		t.Fatalf("expected delegate to vote for u2, got %+v", e)
	}

	receipt, err := ballots.CastVote(ctx, castRequest(v.ID, f.delegate, f.u2, map[uuid.UUID]any{q.ID: true}), models.RequestMeta{})
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	stored, _ := ballots.GetBallot(ctx, v.ID, f.u2)
	if stored.ID != receipt.ResponseID || stored.VoteWeight.String() != "0.35" {
		t.Errorf("unexpected stored ballot %+v", stored)
	}
}

func TestSyncBuilding(t *testing.T) {
	f := newRegistryFixture()
	repo := testutil.NewTestRepository(t)
	svc := services.NewMembershipService(logger.New(), repo, f.client)
	ctx := context.Background()

	result, err := svc.SyncBuilding(ctx, f.building)
	if err != nil {
		t.Fatalf("SyncBuilding failed: %v", err)
	}
	if result.Status != "success" || result.Units != 3 || result.Residents != 4 || result.Delegations != 2 || result.Skipped != 0 {
		t.Errorf("unexpected sync result %+v", result)
	}

	owners, err := repo.OwnerUnits(ctx, f.building)
	if err != nil {
		t.Fatalf("OwnerUnits failed: %v", err)
	}
	if len(owners) != 2 {
		t.Errorf("expected 2 owner units after sync, got %d", len(owners))
	}
	delegations, _ := repo.ActiveDelegations(ctx, f.delegate, testNow)
	if len(delegations) != 1 {
		t.Errorf("expected 1 voting delegation after sync, got %d", len(delegations))
	}

	// syncing again converges on the same state
	again, err := svc.SyncBuilding(ctx, f.building)
	if err != nil || again.Units != 3 {
		t.Errorf("expected idempotent re-sync, got %+v (%v)", again, err)
	}
	owners, _ = repo.OwnerUnits(ctx, f.building)
	if len(owners) != 2 {
		t.Errorf("expected still 2 owner units, got %d", len(owners))
	}
}

func TestSyncBuilding_SkipsMalformed(t *testing.T) {
	building := uuid.New()
	good := uuid.NewString()
	client := registry.NewMockClient(
		registry.WithUnits([]registry.Unit{
			{ID: good, BuildingID: building.String(), Designation: "2A"},
			{ID: "not-a-uuid", BuildingID: building.String(), Designation: "2B"},
		}),
		registry.WithResidents([]registry.Resident{
			registry.MoveIn(good, uuid.NewString()),
			registry.MoveIn("not-a-uuid", uuid.NewString()),
		}),
	)
	repo := testutil.NewTestRepository(t)
	svc := services.NewMembershipService(logger.New(), repo, client)

	result, err := svc.SyncBuilding(context.Background(), building)
	if err != nil {
		t.Fatalf("SyncBuilding failed: %v", err)
	}
	if result.Units != 1 || result.Residents != 1 || result.Skipped != 2 || result.Message == "" {
		t.Errorf("unexpected sync result %+v", result)
	}
}

func TestSyncBuilding_Errors(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewTestRepository(t)

	disabled := services.NewMembershipService(logger.New(), repo, nil)
	if _, err := disabled.SyncBuilding(ctx, uuid.New()); err != services.ErrRegistryDisabled {
		t.Errorf("expected ErrRegistryDisabled, got %v", err)
	}
	if !errors.IsKind(services.ErrRegistryDisabled, errors.ErrValidation) {
		t.Error("expected registry-disabled to be a validation error")
	}

	boom := stderrors.New("registry down")
	f := newRegistryFixture(registry.WithUnitsError(boom))
	svc := services.NewMembershipService(logger.New(), repo, f.client)
	if _, err := svc.SyncBuilding(ctx, f.building); !stderrors.Is(err, boom) {
		t.Errorf("expected fetch error, got %v", err)
	}

	mockRepo := mock.NewRepository(repo)
	mockRepo.UpsertUnitError = stderrors.New("disk full")
	svc = services.NewMembershipService(logger.New(), mockRepo, newRegistryFixture().client)
	if _, err := svc.SyncBuilding(ctx, uuid.New()); err != nil {
		t.Errorf("expected empty building to sync cleanly, got %v", err)
	}
	g := newRegistryFixture()
	svc = services.NewMembershipService(logger.New(), mockRepo, g.client)
	if _, err := svc.SyncBuilding(ctx, g.building); err == nil {
		t.Error("expected upsert error to propagate")
	}
}
