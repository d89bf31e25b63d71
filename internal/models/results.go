package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Results is the tally of a vote, frozen onto the vote at close
type Results struct {
	VoteID             uuid.UUID        `json:"vote_id"`
	ParticipationCount int              `json:"participation_count"`
	EligibleCount      int              `json:"eligible_count"`
	ParticipationRate  float64          `json:"participation_rate"`
	QuorumMet          bool             `json:"quorum_met"`
	Questions          []QuestionResult `json:"questions"`
	CalculatedAt       time.Time        `json:"calculated_at"`
}

// QuestionResult is the tally of one question
type QuestionResult struct {
	QuestionID    uuid.UUID      `json:"question_id"`
	Text          string         `json:"question_text"`
	Type          QuestionType   `json:"question_type"`
	TotalVotes    int            `json:"total_votes"`
	WeightedTotal float64        `json:"weighted_total"`
	Options       []OptionResult `json:"results"`
	Winner        *uuid.UUID     `json:"winner,omitempty"`
}

// OptionResult is the tally of one option
type OptionResult struct {
	OptionID      uuid.UUID `json:"option_id"`
	Label         string    `json:"option_text"`
	Count         int       `json:"count"`
	WeightedCount float64   `json:"weighted_count"`
	Percentage    float64   `json:"percentage"`
}

// ReportData bundles everything needed to render a vote report
type ReportData struct {
	Vote                 *Vote                 `json:"vote"`
	Questions            []VoteQuestion        `json:"questions"`
	Results              *Results              `json:"results,omitempty"`
	ParticipationDetails []ParticipationDetail `json:"participation_details"`
	GeneratedAt          time.Time             `json:"generated_at"`
}

// ParticipationDetail is one unit's line in a report
type ParticipationDetail struct {
	UnitID          uuid.UUID       `json:"unit_id"`
	UnitDesignation string          `json:"unit_designation"`
	Voted           bool            `json:"voted"`
	VoteWeight      decimal.Decimal `json:"vote_weight"`
}
