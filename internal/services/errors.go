package services

import (
	stderrors "errors"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/repository"
)

// Service errors
var (
	ErrVoteNotFound       = errors.NotFound("vote not found")
	ErrQuestionNotFound   = errors.NotFound("question not found")
	ErrBallotNotFound     = errors.NotFound("ballot not found")
	ErrCommentNotFound    = errors.NotFound("comment not found")
	ErrUnitNotFound       = errors.NotFound("unit not found")
	ErrVotingClosed       = errors.NotEligible(ReasonNotAccepting)
	ErrNotEligible        = errors.NotEligible(ReasonNotEligible)
	ErrDelegationMismatch = errors.NotEligible("delegation does not match the unit")
	ErrDuplicateBallot    = errors.DuplicateVote("this unit has already voted")
	ErrNoQuestions        = errors.Validation("a vote needs at least one question to be published")
	ErrDraftComments      = errors.Conflict("comments are closed while the vote is a draft")
	ErrRegistryDisabled   = errors.Validation("no membership registry is configured")
)

// Eligibility reasons
const (
	ReasonNotAccepting = "Vote is not currently accepting ballots"
	ReasonNotEligible  = "User is not eligible to vote in this building"
	ReasonAllVoted     = "All eligible units have already voted"
)

// notFound maps a repository miss onto the given service error and passes
// every other error through.
func notFound(err, target error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
