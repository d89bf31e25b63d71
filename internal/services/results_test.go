package services_test

import (
	"context"
	stderrors "errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository/mock"
	"github.com/abrezinsky/ownervote/internal/services"
	"github.com/abrezinsky/ownervote/internal/testutil"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGetResults_LiveWeightedTally(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	a := env.ownUnit(t, alice, "L1", 0.5)
	b := env.ownUnit(t, bob, "L2", 0.3)
	c := env.ownUnit(t, carol, "L3", 0.2)

	v := env.createDraft(t)
	yn := env.addQuestion(t, v.ID, models.QuestionTypeYesNo)
	ranked := env.addQuestion(t, v.ID, models.QuestionTypeRanked, "Acme", "Brick", "Cornerstone")
	if _, err := env.votes.Publish(ctx, v.ID, nil, env.admin, models.RequestMeta{}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	acme, brick, corner := ranked.Options[0].ID.String(), ranked.Options[1].ID.String(), ranked.Options[2].ID.String()
	env.cast(t, v.ID, alice, a.ID, map[uuid.UUID]any{yn.ID: true, ranked.ID: []string{brick, acme, corner}})
	env.cast(t, v.ID, bob, b.ID, map[uuid.UUID]any{yn.ID: false, ranked.ID: []string{acme, brick}})
	env.cast(t, v.ID, carol, c.ID, map[uuid.UUID]any{yn.ID: false, ranked.ID: []string{corner}})

	results, err := env.results.GetResults(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if results.ParticipationCount != 3 || results.EligibleCount != 3 || !results.QuorumMet || !approx(results.ParticipationRate, 100) {
		t.Errorf("unexpected summary %+v", results)
	}

	ynr := results.Questions[0]
	if ynr.TotalVotes != 3 || !approx(ynr.WeightedTotal, 1.0) {
		t.Errorf("unexpected yes/no totals %+v", ynr)
	}
	if !approx(ynr.Options[0].WeightedCount, 0.5) || !approx(ynr.Options[1].WeightedCount, 0.5) {
		t.Errorf("unexpected yes/no weights %+v", ynr.Options)
	}
	// a tie goes to the lowest option order
	if ynr.Winner == nil || *ynr.Winner != yn.Options[0].ID {
		t.Errorf("expected Yes to win the tie, got %v", ynr.Winner)
	}

	// Acme: 0.5*2/3 + 0.3*2/2, Brick: 0.5*3/3 + 0.3*1/2, Cornerstone: 0.5*1/3 + 0.2
	rr := results.Questions[1]
	wantAcme := 0.5*2/3 + 0.3
	wantBrick := 0.5 + 0.15
	wantCorner := 0.5/3 + 0.2
	if !approx(rr.Options[0].WeightedCount, wantAcme) || !approx(rr.Options[1].WeightedCount, wantBrick) || !approx(rr.Options[2].WeightedCount, wantCorner) {
		t.Errorf("unexpected ranked weights %+v", rr.Options)
	}
	if rr.Winner == nil || *rr.Winner != ranked.Options[1].ID {
		t.Errorf("expected Brick to win, got %v", rr.Winner)
	}

	// live results are not stored
	got, _ := env.votes.GetVote(ctx, v.ID)
	if got.ResultsCalculatedAt != nil || len(got.Results) != 0 {
		t.Error("expected live results not to be persisted")
	}
}

func TestGetResults_FrozenAfterClose(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	owner := uuid.New()
	unit := env.ownUnit(t, owner, "M1", 0)
	env.ownUnit(t, uuid.New(), "M2", 0)
	env.ownUnit(t, uuid.New(), "M3", 0)
	v, q := env.activeVote(t)
	env.cast(t, v.ID, owner, unit.ID, map[uuid.UUID]any{q.ID: true})

	env.clock.Set(testNow.Add(time.Hour))
	_, closedResults, err := env.votes.Close(ctx, v.ID, &env.admin, models.RequestMeta{})
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if closedResults.QuorumMet {
		t.Error("expected 1 of 3 to miss a 50% quorum")
	}

	env.clock.Set(testNow.Add(48 * time.Hour))
	results, err := env.results.GetResults(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if !results.CalculatedAt.Equal(closedResults.CalculatedAt) {
		t.Errorf("expected frozen snapshot from %v, got %v", closedResults.CalculatedAt, results.CalculatedAt)
	}
	if results.ParticipationCount != 1 || !approx(results.ParticipationRate, 100.0/3) {
		t.Errorf("unexpected frozen results %+v", results)
	}

	if _, err := env.results.GetResults(ctx, uuid.New()); err != services.ErrVoteNotFound {
		t.Errorf("expected ErrVoteNotFound, got %v", err)
	}
}

func TestGenerateReport(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	a := env.ownUnit(t, alice, "N2", 0.6)
	env.ownUnit(t, bob, "N1", 0.4)
	v, q := env.activeVote(t)
	env.cast(t, v.ID, alice, a.ID, map[uuid.UUID]any{q.ID: true})

	// the voter then sells; the unit still appears, through its ballot
	if err := env.repo.MoveOut(ctx, a.ID, alice, testNow.Add(time.Minute)); err != nil {
		t.Fatalf("MoveOut failed: %v", err)
	}

	report, err := env.results.GenerateReport(ctx, v.ID)
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	if report.Vote.ID != v.ID || len(report.Questions) != 1 || report.Results == nil {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.ParticipationDetails) != 2 {
		t.Fatalf("expected 2 participation lines, got %d", len(report.ParticipationDetails))
	}
	first, second := report.ParticipationDetails[0], report.ParticipationDetails[1]
	if first.UnitDesignation != "N1" || first.Voted {
		t.Errorf("unexpected first line %+v", first)
	}
	if second.UnitDesignation != "N2" || !second.Voted || second.VoteWeight.String() != "0.6" {
		t.Errorf("unexpected second line %+v", second)
	}
	if !report.GeneratedAt.Equal(testNow) {
		t.Errorf("expected generated_at %v, got %v", testNow, report.GeneratedAt)
	}
}

func TestResults_StorageErrors(t *testing.T) {
	real := testutil.NewTestRepository(t)
	mockRepo := mock.NewRepository(real)
	env := setupServicesWithRepo(t, real, mockRepo)
	ctx := context.Background()
	v, _ := env.activeVote(t)

	mockRepo.ListBallotsError = stderrors.New("boom")
	if _, err := env.results.GetResults(ctx, v.ID); err == nil {
		t.Error("expected error from ListBallots")
	}
	mockRepo.ListBallotsError = nil

	mockRepo.OwnerUnitsError = stderrors.New("boom")
	if _, err := env.results.GenerateReport(ctx, v.ID); err == nil {
		t.Error("expected error from OwnerUnits")
	}
	mockRepo.OwnerUnitsError = nil

	mockRepo.GetVoteError = stderrors.New("boom")
	if _, err := env.results.GenerateReport(ctx, v.ID); err == nil {
		t.Error("expected error from GetVote")
	}
}
