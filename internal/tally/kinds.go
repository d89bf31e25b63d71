package tally

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/ownervote/internal/errors"
	"github.com/abrezinsky/ownervote/internal/models"
)

// Kind is the closed set of question types. Each variant validates its own
// option list and answer shape, and scores a single ballot without side
// effects.
type Kind interface {
	Type() models.QuestionType
	ValidateOptions(options []models.QuestionOption) error
	ValidateAnswer(answer json.RawMessage, options []models.QuestionOption) error
	// Score returns what one ballot contributes to each option. Malformed
	// answers and unknown option ids contribute nothing.
	Score(answer json.RawMessage, options []models.QuestionOption, weight decimal.Decimal) []Share
	sealed()
}

// Share is one ballot's contribution to the option at Index
type Share struct {
	Index  int
	Weight decimal.Decimal
}

type (
	YesNo          struct{}
	SingleChoice   struct{}
	MultipleChoice struct{}
	Ranked         struct{}
)

var kinds = map[models.QuestionType]Kind{
	models.QuestionTypeYesNo:          YesNo{},
	models.QuestionTypeSingleChoice:   SingleChoice{},
	models.QuestionTypeMultipleChoice: MultipleChoice{},
	models.QuestionTypeRanked:         Ranked{},
}

// KindOf returns the variant for a question type
func KindOf(t models.QuestionType) (Kind, error) {
	k, ok := kinds[t]
	if !ok {
		return nil, errors.Validationf("unknown question type %q", t)
	}
	return k, nil
}

// DefaultYesNoOptions builds the Yes/No options given to yes_no questions
// created without any.
func DefaultYesNoOptions() []models.QuestionOption {
	return []models.QuestionOption{
		{ID: uuid.New(), Label: "Yes", Order: 0},
		{ID: uuid.New(), Label: "No", Order: 1},
	}
}

// ==================== yes_no ====================

func (YesNo) Type() models.QuestionType { return models.QuestionTypeYesNo }
func (YesNo) sealed()                   {}

func (YesNo) ValidateOptions(options []models.QuestionOption) error {
	if len(options) != 2 {
		return errors.Validation("yes/no questions need exactly two options")
	}
	return validateOptionSet(options)
}

func (YesNo) ValidateAnswer(answer json.RawMessage, _ []models.QuestionOption) error {
	var b bool
	if err := json.Unmarshal(answer, &b); err != nil {
		return errors.Validation("yes/no answer must be true or false")
	}
	return nil
}

// Score maps true to the first option and false to the second
func (YesNo) Score(answer json.RawMessage, options []models.QuestionOption, weight decimal.Decimal) []Share {
	var b bool
	if err := json.Unmarshal(answer, &b); err != nil {
		return nil
	}
	idx := 1
	if b {
		idx = 0
	}
	if idx >= len(options) {
		return nil
	}
	return []Share{{Index: idx, Weight: weight}}
}

// ==================== single_choice ====================

func (SingleChoice) Type() models.QuestionType { return models.QuestionTypeSingleChoice }
func (SingleChoice) sealed()                   {}

func (SingleChoice) ValidateOptions(options []models.QuestionOption) error {
	return validateOptionSet(options)
}

func (SingleChoice) ValidateAnswer(answer json.RawMessage, options []models.QuestionOption) error {
	var id string
	if err := json.Unmarshal(answer, &id); err != nil {
		return errors.Validation("single choice answer must be an option id")
	}
	if optionIndex(options, id) < 0 {
		return errors.Validationf("unknown option %q", id)
	}
	return nil
}

func (SingleChoice) Score(answer json.RawMessage, options []models.QuestionOption, weight decimal.Decimal) []Share {
	var id string
	if err := json.Unmarshal(answer, &id); err != nil {
		return nil
	}
	idx := optionIndex(options, id)
	if idx < 0 {
		return nil
	}
	return []Share{{Index: idx, Weight: weight}}
}

// ==================== multiple_choice ====================

func (MultipleChoice) Type() models.QuestionType { return models.QuestionTypeMultipleChoice }
func (MultipleChoice) sealed()                   {}

func (MultipleChoice) ValidateOptions(options []models.QuestionOption) error {
	return validateOptionSet(options)
}

func (MultipleChoice) ValidateAnswer(answer json.RawMessage, options []models.QuestionOption) error {
	ids, err := decodeIDList(answer)
	if err != nil {
		return errors.Validation("multiple choice answer must be a list of option ids")
	}
	return validateSelection(ids, options)
}

// Score gives every selected option the full weight. A repeated id counts once.
func (MultipleChoice) Score(answer json.RawMessage, options []models.QuestionOption, weight decimal.Decimal) []Share {
	ids, err := decodeIDList(answer)
	if err != nil {
		return nil
	}
	seen := make(map[int]bool, len(ids))
	var shares []Share
	for _, id := range ids {
		idx := optionIndex(options, id)
		if idx < 0 || seen[idx] {
			continue
		}
		seen[idx] = true
		shares = append(shares, Share{Index: idx, Weight: weight})
	}
	return shares
}

// ==================== ranked ====================

func (Ranked) Type() models.QuestionType { return models.QuestionTypeRanked }
func (Ranked) sealed()                   {}

func (Ranked) ValidateOptions(options []models.QuestionOption) error {
	return validateOptionSet(options)
}

func (Ranked) ValidateAnswer(answer json.RawMessage, options []models.QuestionOption) error {
	ids, err := decodeIDList(answer)
	if err != nil {
		return errors.Validation("ranked answer must be an ordered list of option ids")
	}
	return validateSelection(ids, options)
}

// Score gives the option at rank r (0-based) of an N-long ranking
// weight * (N - r) / N.
func (Ranked) Score(answer json.RawMessage, options []models.QuestionOption, weight decimal.Decimal) []Share {
	ids, err := decodeIDList(answer)
	if err != nil || len(ids) == 0 {
		return nil
	}
	n := decimal.NewFromInt(int64(len(ids)))
	var shares []Share
	for r, id := range ids {
		idx := optionIndex(options, id)
		if idx < 0 {
			continue
		}
		points := decimal.NewFromInt(int64(len(ids) - r))
		shares = append(shares, Share{Index: idx, Weight: weight.Mul(points).Div(n)})
	}
	return shares
}

// ==================== helpers ====================

func validateOptionSet(options []models.QuestionOption) error {
	if len(options) < 2 {
		return errors.Validation("question needs at least two options")
	}
	seen := make(map[uuid.UUID]bool, len(options))
	for _, opt := range options {
		if opt.ID == uuid.Nil {
			return errors.Validation("option id is required")
		}
		if opt.Label == "" {
			return errors.Validation("option text is required")
		}
		if seen[opt.ID] {
			return errors.Validationf("duplicate option id %s", opt.ID)
		}
		seen[opt.ID] = true
	}
	return nil
}

func validateSelection(ids []string, options []models.QuestionOption) error {
	if len(ids) == 0 {
		return errors.Validation("at least one option must be selected")
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		idx := optionIndex(options, id)
		if idx < 0 {
			return errors.Validationf("unknown option %q", id)
		}
		if seen[idx] {
			return errors.Validationf("option %q selected more than once", id)
		}
		seen[idx] = true
	}
	return nil
}

func decodeIDList(answer json.RawMessage) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(answer, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func optionIndex(options []models.QuestionOption, id string) int {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return -1
	}
	for i, opt := range options {
		if opt.ID == parsed {
			return i
		}
	}
	return -1
}
