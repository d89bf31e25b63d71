package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
	"github.com/abrezinsky/ownervote/internal/services"
	"github.com/abrezinsky/ownervote/internal/testutil"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// testClock is a settable time source shared by the services under test
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// mockBroadcaster records every broadcast
type mockBroadcaster struct {
	mu            sync.Mutex
	statuses      []models.VoteStatus
	participation []int
	results       []*models.Results
}

func (m *mockBroadcaster) BroadcastVoteStatus(vote *models.Vote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, vote.Status)
}

func (m *mockBroadcaster) BroadcastParticipation(voteID uuid.UUID, participation, eligible int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participation = append(m.participation, participation)
}

func (m *mockBroadcaster) BroadcastResults(results *models.Results) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, results)
}

// testEnv wires every service over one in-memory repository
type testEnv struct {
	repo     *repository.Repository
	clock    *testClock
	bcast    *mockBroadcaster
	resolver *services.EligibilityResolver
	votes    *services.VoteService
	ballots  *services.BallotService
	results  *services.ResultsService
	audit    *services.AuditService
	comments *services.CommentService
	org      uuid.UUID
	building uuid.UUID
	admin    uuid.UUID
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	return setupServicesWithRepo(t, repo, repo)
}

// setupServicesWithRepo lets tests swap in a wrapped repository while
// seeding through the real one.
func setupServicesWithRepo(t *testing.T, real *repository.Repository, repo repository.FullRepository) *testEnv {
	t.Helper()
	log := logger.New()
	clock := &testClock{now: testNow}
	bcast := &mockBroadcaster{}

	resolver := services.NewEligibilityResolver(repo, repo)
	votes := services.NewVoteService(log, repo, resolver)
	votes.SetClock(clock.Now)
	votes.SetBroadcaster(bcast)
	ballots := services.NewBallotService(log, repo, resolver)
	ballots.SetClock(clock.Now)
	ballots.SetBroadcaster(bcast)
	results := services.NewResultsService(log, repo, repo)
	results.SetClock(clock.Now)
	comments := services.NewCommentService(log, repo)
	comments.SetClock(clock.Now)

	return &testEnv{
		repo:     real,
		clock:    clock,
		bcast:    bcast,
		resolver: resolver,
		votes:    votes,
		ballots:  ballots,
		results:  results,
		audit:    services.NewAuditService(log, repo),
		comments: comments,
		org:      uuid.New(),
		building: uuid.New(),
		admin:    uuid.New(),
	}
}

func (e *testEnv) createDraft(t *testing.T, mutate ...func(*models.CreateVote)) *models.Vote {
	t.Helper()
	req := models.CreateVote{
		OrganizationID: e.org,
		BuildingID:     e.building,
		Title:          "Facade renovation",
		EndAt:          testNow.Add(7 * 24 * time.Hour),
		CreatedBy:      e.admin,
	}
	for _, m := range mutate {
		m(&req)
	}
	v, err := e.votes.CreatePoll(context.Background(), req, models.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "test"})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	return v
}

func (e *testEnv) addQuestion(t *testing.T, voteID uuid.UUID, qt models.QuestionType, labels ...string) *models.VoteQuestion {
	t.Helper()
	req := models.CreateQuestion{Text: string(qt) + " question", Type: qt}
	for i, l := range labels {
		req.Options = append(req.Options, models.QuestionOption{Label: l, Order: i})
	}
	q, err := e.votes.AddQuestion(context.Background(), voteID, req, e.admin, models.RequestMeta{})
	if err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}
	return q
}

// activeVote creates a vote with one yes/no question and publishes it now
func (e *testEnv) activeVote(t *testing.T, mutate ...func(*models.CreateVote)) (*models.Vote, *models.VoteQuestion) {
	t.Helper()
	v := e.createDraft(t, mutate...)
	q := e.addQuestion(t, v.ID, models.QuestionTypeYesNo)
	published, err := e.votes.Publish(context.Background(), v.ID, nil, e.admin, models.RequestMeta{})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	return published, q
}

func (e *testEnv) ownUnit(t *testing.T, userID uuid.UUID, designation string, share float64) models.Unit {
	t.Helper()
	return testutil.SeedOwnedUnit(t, e.repo, e.building, userID, designation, share)
}

func (e *testEnv) cast(t *testing.T, voteID, userID, unitID uuid.UUID, answers map[uuid.UUID]any) *models.Receipt {
	t.Helper()
	r, err := e.ballots.CastVote(context.Background(), castRequest(voteID, userID, unitID, answers), models.RequestMeta{})
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	return r
}

func castRequest(voteID, userID, unitID uuid.UUID, answers map[uuid.UUID]any) models.CastVote {
	req := models.CastVote{VoteID: voteID, UserID: userID, UnitID: unitID, Answers: map[string]json.RawMessage{}}
	for qid, a := range answers {
		raw, _ := json.Marshal(a)
		req.Answers[qid.String()] = raw
	}
	return req
}

func auditActions(t *testing.T, e *testEnv, voteID uuid.UUID) []models.AuditAction {
	t.Helper()
	entries, err := e.audit.GetAuditLog(context.Background(), voteID)
	if err != nil {
		t.Fatalf("GetAuditLog failed: %v", err)
	}
	actions := make([]models.AuditAction, len(entries))
	for i, entry := range entries {
		actions[i] = entry.Action
	}
	return actions
}
