package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ballot is the current response of one unit to one vote
type Ballot struct {
	ID           uuid.UUID                  `json:"id"`
	VoteID       uuid.UUID                  `json:"vote_id"`
	UserID       uuid.UUID                  `json:"user_id"`
	UnitID       uuid.UUID                  `json:"unit_id"`
	DelegationID *uuid.UUID                 `json:"delegation_id,omitempty"`
	IsDelegated  bool                       `json:"is_delegated"`
	Answers      map[string]json.RawMessage `json:"answers"`
	VoteWeight   decimal.Decimal            `json:"vote_weight"`
	ResponseHash string                     `json:"response_hash"`
	SubmittedAt  time.Time                  `json:"submitted_at"`
}

// Answer returns the raw answer for a question, or nil when unanswered
func (b *Ballot) Answer(questionID uuid.UUID) json.RawMessage {
	raw, ok := b.Answers[questionID.String()]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// CastVote is a request to record a ballot
type CastVote struct {
	VoteID       uuid.UUID                  `json:"vote_id"`
	UserID       uuid.UUID                  `json:"user_id"`
	UnitID       uuid.UUID                  `json:"unit_id"`
	DelegationID *uuid.UUID                 `json:"delegation_id,omitempty"`
	Answers      map[string]json.RawMessage `json:"answers"`
}

// Receipt is returned to the voter after a ballot is recorded
type Receipt struct {
	ResponseID         uuid.UUID `json:"response_id"`
	VoteID             uuid.UUID `json:"vote_id"`
	UnitID             uuid.UUID `json:"unit_id"`
	Hash               string    `json:"response_hash"`
	ConfirmationNumber string    `json:"confirmation_number"`
	SubmittedAt        time.Time `json:"submitted_at"`
}

// EligibleUnit is a unit through which a user may vote. Transient.
type EligibleUnit struct {
	UnitID         uuid.UUID       `json:"unit_id"`
	Designation    string          `json:"unit_designation"`
	OwnershipShare decimal.Decimal `json:"ownership_share"`
	IsOwner        bool            `json:"is_owner"`
	IsDelegated    bool            `json:"is_delegated"`
	DelegationID   *uuid.UUID      `json:"delegation_id,omitempty"`
	AlreadyVoted   bool            `json:"already_voted"`
}

// Eligibility answers "may this user vote now, and through which units"
type Eligibility struct {
	VoteID        uuid.UUID      `json:"vote_id"`
	UserID        uuid.UUID      `json:"user_id"`
	EligibleUnits []EligibleUnit `json:"eligible_units"`
	CanVote       bool           `json:"can_vote"`
	Reason        string         `json:"reason,omitempty"`
}
