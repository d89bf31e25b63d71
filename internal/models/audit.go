package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction names a recorded event
type AuditAction string

const (
	AuditVoteCreated       AuditAction = "vote_created"
	AuditVotePublished     AuditAction = "vote_published"
	AuditVoteCancelled     AuditAction = "vote_cancelled"
	AuditVoteClosed        AuditAction = "vote_closed"
	AuditQuestionAdded     AuditAction = "question_added"
	AuditQuestionRemoved   AuditAction = "question_removed"
	AuditBallotCast        AuditAction = "ballot_cast"
	AuditBallotUpdated     AuditAction = "ballot_updated"
	AuditCommentAdded      AuditAction = "comment_added"
	AuditCommentHidden     AuditAction = "comment_hidden"
	AuditResultsCalculated AuditAction = "results_calculated"
)

// AuditEntry is one append-only record in a vote's audit trail
type AuditEntry struct {
	ID           uuid.UUID       `json:"id"`
	VoteID       uuid.UUID       `json:"vote_id"`
	UserID       *uuid.UUID      `json:"user_id,omitempty"`
	Action       AuditAction     `json:"action"`
	DataHash     string          `json:"data_hash"`
	DataSnapshot json.RawMessage `json:"data_snapshot,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AuditEvent is an entry waiting to be appended
type AuditEvent struct {
	UserID    *uuid.UUID
	Action    AuditAction
	Data      any
	IPAddress string
	UserAgent string
}

// RequestMeta is caller context recorded with audit entries
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditVerification is the outcome of recomputing every entry's data hash
type AuditVerification struct {
	VoteID     uuid.UUID   `json:"vote_id"`
	Entries    int         `json:"entries"`
	Valid      bool        `json:"valid"`
	Mismatches []uuid.UUID `json:"mismatches"`
}
