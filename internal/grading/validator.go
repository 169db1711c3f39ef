package grading

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"gorm.io/datatypes"
)

// AnswerValidator grades a single answer against a question snapshot.
//
// The result is tri-state: true, false, or nil. Nil means the answer cannot
// be auto-graded and must wait for a human evaluator. It is a first-class
// outcome for free-text types, never an error. The validator reads only the
// snapshot, so grading stays reproducible even after the live question is
// edited.
type AnswerValidator struct{}

func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

func (v *AnswerValidator) Validate(snapshot *models.QuestionSnapshot, value datatypes.JSON) *bool {
	switch snapshot.Type {
	case models.QuestionTypeMCQSingle:
		return boolPtr(v.validateMCQSingle(snapshot, value))
	case models.QuestionTypeMCQMultiple:
		return boolPtr(v.validateMCQMultiple(snapshot, value))
	case models.QuestionTypeTrueFalse:
		return boolPtr(v.validateTrueFalse(snapshot, value))
	case models.QuestionTypeNumerical:
		return boolPtr(v.validateNumerical(snapshot, value))
	case models.QuestionTypeShortAnswer, models.QuestionTypeLongAnswer, models.QuestionTypeCaseBased:
		return nil
	default:
		return nil
	}
}

func (v *AnswerValidator) validateMCQSingle(snapshot *models.QuestionSnapshot, value datatypes.JSON) bool {
	var submittedID string
	if err := json.Unmarshal(value, &submittedID); err != nil {
		return false
	}
	correctIDs := snapshot.CorrectOptionIDs()
	return len(correctIDs) == 1 && submittedID == correctIDs[0]
}

// validateMCQMultiple accepts only an exact set match of the submitted option
// ids against the correct option ids. Subsets and supersets are wrong; order
// and duplicates do not matter.
func (v *AnswerValidator) validateMCQMultiple(snapshot *models.QuestionSnapshot, value datatypes.JSON) bool {
	var submittedIDs []string
	if err := json.Unmarshal(value, &submittedIDs); err != nil {
		return false
	}

	correct := make(map[string]bool)
	for _, id := range snapshot.CorrectOptionIDs() {
		correct[id] = true
	}
	if len(correct) == 0 {
		return false
	}

	submitted := make(map[string]bool)
	for _, id := range submittedIDs {
		submitted[id] = true
	}
	if len(submitted) != len(correct) {
		return false
	}
	for id := range submitted {
		if !correct[id] {
			return false
		}
	}
	return true
}

func (v *AnswerValidator) validateTrueFalse(snapshot *models.QuestionSnapshot, value datatypes.JSON) bool {
	var submitted string
	if err := json.Unmarshal(value, &submitted); err != nil {
		return false
	}
	for _, option := range snapshot.Options {
		if option.IsCorrect {
			return strings.EqualFold(strings.TrimSpace(submitted), option.Text)
		}
	}
	return false
}

// validateNumerical is tolerance-inclusive on both bounds. Submissions that
// do not parse as a number are incorrect, not pending.
func (v *AnswerValidator) validateNumerical(snapshot *models.QuestionSnapshot, value datatypes.JSON) bool {
	if snapshot.NumericalAnswer == nil {
		return false
	}
	submitted, ok := parseNumeric(value)
	if !ok {
		return false
	}
	expected := snapshot.NumericalAnswer
	return math.Abs(submitted-expected.Value) <= expected.Tolerance
}

// parseNumeric accepts either a JSON number or a numeric string.
func parseNumeric(value datatypes.JSON) (float64, bool) {
	var number float64
	if err := json.Unmarshal(value, &number); err == nil {
		return number, true
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return 0, false
	}
	number, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return number, true
}

func boolPtr(b bool) *bool {
	return &b
}
