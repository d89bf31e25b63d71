// Package tally turns the ballots of a vote into weighted per-question
// results and evaluates quorum.
package tally

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/ownervote/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Calculate tallies every question of a vote over its ballots. It reads
// nothing but its arguments, so the same inputs always give the same results.
func Calculate(vote *models.Vote, questions []models.VoteQuestion, ballots []models.Ballot, now time.Time) (*models.Results, error) {
	participation := len(ballots)
	eligible := vote.EligibleTotal()

	results := &models.Results{
		VoteID:             vote.ID,
		ParticipationCount: participation,
		EligibleCount:      eligible,
		ParticipationRate:  ParticipationRate(participation, eligible),
		QuorumMet:          QuorumMet(participation, eligible, vote.RequiredQuorum()),
		Questions:          make([]models.QuestionResult, 0, len(questions)),
		CalculatedAt:       now.UTC(),
	}

	for i := range questions {
		qr, err := Question(&questions[i], ballots)
		if err != nil {
			return nil, err
		}
		results.Questions = append(results.Questions, *qr)
	}
	return results, nil
}

// Question tallies a single question in one pass over the ballots
func Question(q *models.VoteQuestion, ballots []models.Ballot) (*models.QuestionResult, error) {
	kind, err := KindOf(q.Type)
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(q.Options))
	weighted := make([]decimal.Decimal, len(q.Options))
	for i := range weighted {
		weighted[i] = decimal.Zero
	}

	totalVotes := 0
	weightedTotal := decimal.Zero
	for i := range ballots {
		answer := ballots[i].Answer(q.ID)
		if answer == nil {
			continue
		}
		totalVotes++
		weightedTotal = weightedTotal.Add(ballots[i].VoteWeight)

		for _, share := range kind.Score(answer, q.Options, ballots[i].VoteWeight) {
			counts[share.Index]++
			weighted[share.Index] = weighted[share.Index].Add(share.Weight)
		}
	}

	optionSum := decimal.Zero
	for _, w := range weighted {
		optionSum = optionSum.Add(w)
	}

	result := &models.QuestionResult{
		QuestionID:    q.ID,
		Text:          q.Text,
		Type:          q.Type,
		TotalVotes:    totalVotes,
		WeightedTotal: weightedTotal.InexactFloat64(),
		Options:       make([]models.OptionResult, len(q.Options)),
	}
	for i, opt := range q.Options {
		pct := decimal.Zero
		if optionSum.IsPositive() {
			pct = weighted[i].Div(optionSum).Mul(hundred)
		}
		result.Options[i] = models.OptionResult{
			OptionID:      opt.ID,
			Label:         opt.Label,
			Count:         counts[i],
			WeightedCount: weighted[i].InexactFloat64(),
			Percentage:    pct.InexactFloat64(),
		}
	}

	if idx := winner(q.Options, weighted); idx >= 0 {
		id := q.Options[idx].ID
		result.Winner = &id
	}
	return result, nil
}

// winner picks the highest weighted option. Ties go to the lowest option
// order, then the earliest position. Returns -1 when nothing has weight.
func winner(options []models.QuestionOption, weighted []decimal.Decimal) int {
	best := -1
	for i := range options {
		if !weighted[i].IsPositive() {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		switch cmp := weighted[i].Cmp(weighted[best]); {
		case cmp > 0:
			best = i
		case cmp == 0 && options[i].Order < options[best].Order:
			best = i
		}
	}
	return best
}
