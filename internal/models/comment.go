package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxCommentLength bounds comment content, in characters
const MaxCommentLength = 5000

// Comment is a discussion post on a vote
type Comment struct {
	ID           uuid.UUID  `json:"id"`
	VoteID       uuid.UUID  `json:"vote_id"`
	UserID       uuid.UUID  `json:"user_id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	Content      string     `json:"content"`
	Hidden       bool       `json:"hidden"`
	HiddenBy     *uuid.UUID `json:"hidden_by,omitempty"`
	HiddenAt     *time.Time `json:"hidden_at,omitempty"`
	HiddenReason string     `json:"hidden_reason,omitempty"`
	AIConsent    bool       `json:"ai_consent"`
	ReplyCount   int        `json:"reply_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateComment carries the fields of a new comment
type CreateComment struct {
	VoteID    uuid.UUID  `json:"vote_id"`
	UserID    uuid.UUID  `json:"user_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Content   string     `json:"content"`
	AIConsent bool       `json:"ai_consent"`
}
