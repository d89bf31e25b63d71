package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// VoteStatus is the lifecycle state of a vote
type VoteStatus string

const (
	VoteStatusDraft     VoteStatus = "draft"
	VoteStatusScheduled VoteStatus = "scheduled"
	VoteStatusActive    VoteStatus = "active"
	VoteStatusClosed    VoteStatus = "closed"
	VoteStatusCancelled VoteStatus = "cancelled"
)

// AllVoteStatuses lists every lifecycle state
var AllVoteStatuses = []VoteStatus{
	VoteStatusDraft, VoteStatusScheduled, VoteStatusActive, VoteStatusClosed, VoteStatusCancelled,
}

func (s VoteStatus) Valid() bool {
	for _, status := range AllVoteStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s VoteStatus) Terminal() bool {
	return s == VoteStatusClosed || s == VoteStatusCancelled
}

// QuestionType selects how a question's answers are validated and tallied
type QuestionType string

const (
	QuestionTypeYesNo          QuestionType = "yes_no"
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeRanked         QuestionType = "ranked"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeYesNo, QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeRanked:
		return true
	}
	return false
}

// QuorumType is a descriptive label; the threshold itself is QuorumPercentage.
type QuorumType string

const (
	QuorumTypeSimpleMajority QuorumType = "simple_majority"
	QuorumTypeTwoThirds      QuorumType = "two_thirds"
	QuorumTypeWeighted       QuorumType = "weighted"
)

func (t QuorumType) Valid() bool {
	switch t {
	case QuorumTypeSimpleMajority, QuorumTypeTwoThirds, QuorumTypeWeighted:
		return true
	}
	return false
}

// DefaultQuorumPercentage applies when a vote does not set its own threshold
const DefaultQuorumPercentage = 50

// Vote is a building governance decision put to the unit owners
type Vote struct {
	ID                  uuid.UUID       `json:"id"`
	OrganizationID      uuid.UUID       `json:"organization_id"`
	BuildingID          uuid.UUID       `json:"building_id"`
	Title               string          `json:"title"`
	Description         string          `json:"description,omitempty"`
	StartAt             *time.Time      `json:"start_at,omitempty"`
	EndAt               time.Time       `json:"end_at"`
	Status              VoteStatus      `json:"status"`
	QuorumType          QuorumType      `json:"quorum_type"`
	QuorumPercentage    *int            `json:"quorum_percentage,omitempty"`
	AllowDelegation     bool            `json:"allow_delegation"`
	AnonymousVoting     bool            `json:"anonymous_voting"`
	ParticipationCount  int             `json:"participation_count"`
	EligibleCount       *int            `json:"eligible_count,omitempty"`
	QuorumMet           *bool           `json:"quorum_met,omitempty"`
	Results             json.RawMessage `json:"results,omitempty"`
	ResultsCalculatedAt *time.Time      `json:"results_calculated_at,omitempty"`
	CreatedBy           uuid.UUID       `json:"created_by"`
	PublishedBy         *uuid.UUID      `json:"published_by,omitempty"`
	PublishedAt         *time.Time      `json:"published_at,omitempty"`
	CancelledBy         *uuid.UUID      `json:"cancelled_by,omitempty"`
	CancelledAt         *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason  string          `json:"cancellation_reason,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// RequiredQuorum returns the participation percentage needed for quorum
func (v *Vote) RequiredQuorum() int {
	if v.QuorumPercentage == nil {
		return DefaultQuorumPercentage
	}
	return *v.QuorumPercentage
}

// EligibleTotal returns the frozen eligible count, or 0 before publish
func (v *Vote) EligibleTotal() int {
	if v.EligibleCount == nil {
		return 0
	}
	return *v.EligibleCount
}

// AcceptingBallots reports whether a ballot cast at now would be accepted:
// the vote is active and now falls in [start_at, end_at).
func (v *Vote) AcceptingBallots(now time.Time) bool {
	if v.Status != VoteStatusActive {
		return false
	}
	if v.StartAt != nil && now.Before(*v.StartAt) {
		return false
	}
	return now.Before(v.EndAt)
}

// CreateVote carries the fields of a new draft vote
type CreateVote struct {
	OrganizationID   uuid.UUID  `json:"organization_id"`
	BuildingID       uuid.UUID  `json:"building_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	StartAt          *time.Time `json:"start_at,omitempty"`
	EndAt            time.Time  `json:"end_at"`
	QuorumType       QuorumType `json:"quorum_type"`
	QuorumPercentage *int       `json:"quorum_percentage,omitempty"`
	AllowDelegation  *bool      `json:"allow_delegation,omitempty"`
	AnonymousVoting  *bool      `json:"anonymous_voting,omitempty"`
	CreatedBy        uuid.UUID  `json:"created_by"`
}

// UpdateVote is a partial update of a draft vote; nil fields are unchanged
type UpdateVote struct {
	Title            *string     `json:"title,omitempty"`
	Description      *string     `json:"description,omitempty"`
	StartAt          *time.Time  `json:"start_at,omitempty"`
	EndAt            *time.Time  `json:"end_at,omitempty"`
	QuorumType       *QuorumType `json:"quorum_type,omitempty"`
	QuorumPercentage *int        `json:"quorum_percentage,omitempty"`
	AllowDelegation  *bool       `json:"allow_delegation,omitempty"`
	AnonymousVoting  *bool       `json:"anonymous_voting,omitempty"`
}

// Apply copies the set fields onto v
func (u UpdateVote) Apply(v *Vote) {
	if u.Title != nil {
		v.Title = *u.Title
	}
	if u.Description != nil {
		v.Description = *u.Description
	}
	if u.StartAt != nil {
		start := *u.StartAt
		v.StartAt = &start
	}
	if u.EndAt != nil {
		v.EndAt = *u.EndAt
	}
	if u.QuorumType != nil {
		v.QuorumType = *u.QuorumType
	}
	if u.QuorumPercentage != nil {
		pct := *u.QuorumPercentage
		v.QuorumPercentage = &pct
	}
	if u.AllowDelegation != nil {
		v.AllowDelegation = *u.AllowDelegation
	}
	if u.AnonymousVoting != nil {
		v.AnonymousVoting = *u.AnonymousVoting
	}
}

// VoteFilter narrows ListVotes. Zero values mean "any".
type VoteFilter struct {
	OrganizationID *uuid.UUID
	BuildingID     *uuid.UUID
	CreatedBy      *uuid.UUID
	Statuses       []VoteStatus
	Limit          int
	Offset         int
}

// QuestionOption is one selectable answer of a question
type QuestionOption struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"text"`
	Order int       `json:"order"`
}

// VoteQuestion is a single question on a vote's ballot
type VoteQuestion struct {
	ID           uuid.UUID        `json:"id"`
	VoteID       uuid.UUID        `json:"vote_id"`
	Text         string           `json:"question_text"`
	Description  string           `json:"description,omitempty"`
	Type         QuestionType     `json:"question_type"`
	Options      []QuestionOption `json:"options"`
	DisplayOrder int              `json:"display_order"`
	IsRequired   bool             `json:"is_required"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateQuestion carries the fields of a new question
type CreateQuestion struct {
	Text         string           `json:"question_text"`
	Description  string           `json:"description,omitempty"`
	Type         QuestionType     `json:"question_type"`
	Options      []QuestionOption `json:"options"`
	DisplayOrder *int             `json:"display_order,omitempty"`
	IsRequired   *bool            `json:"is_required,omitempty"`
}

// UpdateQuestion is a partial update of a question; nil fields are unchanged
type UpdateQuestion struct {
	Text         *string          `json:"question_text,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Options      []QuestionOption `json:"options,omitempty"`
	DisplayOrder *int             `json:"display_order,omitempty"`
	IsRequired   *bool            `json:"is_required,omitempty"`
}

// Apply copies the set fields onto q
func (u UpdateQuestion) Apply(q *VoteQuestion) {
	if u.Text != nil {
		q.Text = *u.Text
	}
	if u.Description != nil {
		q.Description = *u.Description
	}
	if u.Options != nil {
		q.Options = u.Options
	}
	if u.DisplayOrder != nil {
		q.DisplayOrder = *u.DisplayOrder
	}
	if u.IsRequired != nil {
		q.IsRequired = *u.IsRequired
	}
}
