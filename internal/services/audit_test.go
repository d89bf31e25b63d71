package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository/mock"
	"github.com/abrezinsky/ownervote/internal/services"
	"github.com/abrezinsky/ownervote/internal/testutil"
)

func TestGetAuditLog_FullLifecycle(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	owner := uuid.New()
	unit := env.ownUnit(t, owner, "P1", 0)
	v, q := env.activeVote(t)
	env.cast(t, v.ID, owner, unit.ID, map[uuid.UUID]any{q.ID: true})
	if _, _, err := env.votes.Close(ctx, v.ID, &env.admin, models.RequestMeta{}); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	want := []models.AuditAction{
		models.AuditVoteCreated,
		models.AuditQuestionAdded,
		models.AuditVotePublished,
		models.AuditBallotCast,
		models.AuditResultsCalculated,
		models.AuditVoteClosed,
	}
	got := auditActions(t, env, v.ID)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	entries, _ := env.audit.GetAuditLog(ctx, v.ID)
	if entries[0].IPAddress != "10.0.0.1" || entries[0].UserAgent != "test" {
		t.Errorf("expected request metadata on vote_created, got %+v", entries[0])
	}
	if entries[len(entries)-1].UserID == nil || *entries[len(entries)-1].UserID != env.admin {
		t.Error("expected closing user on vote_closed")
	}
}

func TestGetAuditLog_MissingVote(t *testing.T) {
	env := setupServices(t)
	if _, err := env.audit.GetAuditLog(context.Background(), uuid.New()); err != services.ErrVoteNotFound {
		t.Errorf("expected ErrVoteNotFound, got %v", err)
	}
}

func TestVerifyAuditLog(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	v, _ := env.activeVote(t)

	result, err := env.audit.VerifyAuditLog(ctx, v.ID)
	if err != nil {
		t.Fatalf("VerifyAuditLog failed: %v", err)
	}
	if !result.Valid || result.Entries != 3 || len(result.Mismatches) != 0 {
		t.Errorf("expected clean verification, got %+v", result)
	}

	if _, err := env.repo.DB().ExecContext(ctx, `DROP TRIGGER vote_audit_log_no_update`); err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	if _, err := env.repo.DB().ExecContext(ctx,
		`UPDATE vote_audit_log SET data_snapshot = '{"eligible_count":999,"status":"active"}' WHERE action = 'vote_published'`); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	result, err = env.audit.VerifyAuditLog(ctx, v.ID)
	if !errors.IsKind(err, errors.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if result == nil || result.Valid || len(result.Mismatches) != 1 {
		t.Fatalf("expected one mismatch, got %+v", result)
	}
	entries, _ := env.audit.GetAuditLog(ctx, v.ID)
	if result.Mismatches[0] != entries[2].ID {
		t.Errorf("expected the publish entry to be flagged, got %s", result.Mismatches[0])
	}
}

func TestVerifyAuditLog_StorageError(t *testing.T) {
	real := testutil.NewTestRepository(t)
	mockRepo := mock.NewRepository(real)
	env := setupServicesWithRepo(t, real, mockRepo)
	v := env.createDraft(t)

	mockRepo.ListAuditError = stderrors.New("boom")
	if _, err := env.audit.VerifyAuditLog(context.Background(), v.ID); err == nil || errors.IsDomain(err) {
		t.Errorf("expected opaque storage error, got %v", err)
	}
}
