package handlers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PublishRequest optionally overrides the vote's start time
type PublishRequest struct {
	StartAt *time.Time `json:"start_at"`
}

// CancelRequest represents a request to cancel a vote
type CancelRequest struct {
	Reason string `json:"reason"`
}

// CastVoteRequest represents a ballot submission for one unit
type CastVoteRequest struct {
	UnitID       uuid.UUID                  `json:"unit_id"`
	DelegationID *uuid.UUID                 `json:"delegation_id"`
	Answers      map[string]json.RawMessage `json:"answers"`
}

// CommentRequest represents a request to post a comment or reply
type CommentRequest struct {
	ParentID  *uuid.UUID `json:"parent_id"`
	Content   string     `json:"content"`
	AIConsent bool       `json:"ai_consent"`
}

// HideCommentRequest represents a moderation request
type HideCommentRequest struct {
	Reason string `json:"reason"`
}
