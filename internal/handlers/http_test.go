package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/handlers"
	"github.com/abrezinsky/ownervote/internal/services"
)

func TestAPIError_Error(t *testing.T) {
	err := handlers.NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "test message")

	if err.Error() != "test message" {
		t.Errorf("expected 'test message', got %q", err.Error())
	}
	if err.Code != "BAD_REQUEST" {
		t.Errorf("expected code 'BAD_REQUEST', got %q", err.Code)
	}
}

func TestBadRequest_AssignsCode(t *testing.T) {
	if err := handlers.BadRequest("Request body is empty"); err.Code != handlers.ErrCodeBadRequest {
		t.Errorf("expected BAD_REQUEST, got %q", err.Code)
	}
	if err := handlers.BadRequest("Invalid voteID parameter"); err.Code != handlers.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %q", err.Code)
	}
}

func TestInternalError_HidesCause(t *testing.T) {
	err := handlers.InternalError(fmt.Errorf("db connection failed"))

	if err.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", err.Status)
	}
	if err.Message != "Internal server error" {
		t.Errorf("expected generic message, got %q", err.Message)
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", services.ErrVoteNotFound, http.StatusNotFound, handlers.ErrCodeNotFound},
		{"validation", errors.Validation("title is required"), http.StatusBadRequest, handlers.ErrCodeValidation},
		{"invalid input", errors.InvalidInput("bad answer"), http.StatusBadRequest, handlers.ErrCodeValidation},
		{"conflict", services.ErrDraftComments, http.StatusConflict, handlers.ErrCodeConflict},
		{"invalid transition", errors.InvalidTransitionf("cannot %s", "close"), http.StatusConflict, handlers.ErrCodeInvalidTransition},
		{"duplicate", services.ErrDuplicateBallot, http.StatusConflict, handlers.ErrCodeAlreadyVoted},
		{"not eligible", services.ErrNotEligible, http.StatusForbidden, handlers.ErrCodeForbidden},
		{"voting closed", services.ErrVotingClosed, http.StatusForbidden, handlers.ErrCodeForbidden},
		{"integrity", errors.Integrityf("%d entries", 1), http.StatusUnprocessableEntity, handlers.ErrCodeIntegrity},
		{"wrapped", fmt.Errorf("outer: %w", services.ErrQuestionNotFound), http.StatusNotFound, handlers.ErrCodeNotFound},
		{"internal kind", errors.Internal(fmt.Errorf("boom")), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
		{"opaque", fmt.Errorf("disk full"), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := handlers.ToAPIError(tt.err)
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, apiErr.Code)
			}
		})
	}
}
