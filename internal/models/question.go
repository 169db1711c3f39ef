package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeMCQSingle   QuestionType = "mcq-single"
	QuestionTypeMCQMultiple QuestionType = "mcq-multiple"
	QuestionTypeTrueFalse   QuestionType = "true-false"
	QuestionTypeNumerical   QuestionType = "numerical"
	QuestionTypeShortAnswer QuestionType = "short-answer"
	QuestionTypeLongAnswer  QuestionType = "long-answer"
	QuestionTypeCaseBased   QuestionType = "case-based"
)

// AllQuestionTypes lists every supported type in a stable order.
var AllQuestionTypes = []QuestionType{
	QuestionTypeMCQSingle,
	QuestionTypeMCQMultiple,
	QuestionTypeTrueFalse,
	QuestionTypeNumerical,
	QuestionTypeShortAnswer,
	QuestionTypeLongAnswer,
	QuestionTypeCaseBased,
}

// IsValid reports whether t is one of the supported question types.
func (t QuestionType) IsValid() bool {
	for _, valid := range AllQuestionTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	switch t {
	case QuestionTypeMCQSingle, QuestionTypeMCQMultiple, QuestionTypeTrueFalse, QuestionTypeCaseBased:
		return true
	}
	return false
}

// RequiresManualEvaluation reports whether answers of this type can never be
// auto-graded and must wait for a human evaluator.
func (t QuestionType) RequiresManualEvaluation() bool {
	switch t {
	case QuestionTypeShortAnswer, QuestionTypeLongAnswer, QuestionTypeCaseBased:
		return true
	}
	return false
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// DifficultyOrder is the canonical easy < medium < hard sequence used for
// adjacent-level fallback and difficulty-distance scoring.
var DifficultyOrder = []DifficultyLevel{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Index returns the position of d in DifficultyOrder, or -1 when unknown.
func (d DifficultyLevel) Index() int {
	for i, level := range DifficultyOrder {
		if d == level {
			return i
		}
	}
	return -1
}

func (d DifficultyLevel) IsValid() bool {
	return d.Index() >= 0
}

// QuestionOption is a single selectable option of an mcq/true-false/case-based
// question. Options are stored inline with the question as jsonb.
type QuestionOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// NumericalAnswer is the expected answer of a numerical question. The
// tolerance bound is inclusive on both sides.
type NumericalAnswer struct {
	Value     float64 `json:"value"`
	Tolerance float64 `json:"tolerance"`
	Unit      string  `json:"unit,omitempty"`
}

type Question struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	CourseID   uint            `json:"course_id" gorm:"not null;index" validate:"required"`
	Topic      string          `json:"topic" gorm:"not null;size:100;index" validate:"required,min=1,max=100"`
	Type       QuestionType    `json:"type" gorm:"not null;index" validate:"required,question_type"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"not null;index;default:medium" validate:"required,difficulty_level"`

	Text      string  `json:"text" gorm:"not null;type:text" validate:"required,min=1,max=5000"`
	CaseStudy *string `json:"case_study,omitempty" gorm:"type:text" validate:"omitempty,max=10000"`

	Marks         float64 `json:"marks" gorm:"not null;default:1" validate:"min=0"`
	NegativeMarks float64 `json:"negative_marks" gorm:"not null;default:0" validate:"min=0"`

	// Type-specific content. Options for option-bearing types, NumericalAnswer
	// for numerical, ExpectedAnswer/Keywords for free-text types.
	Options         []QuestionOption            `json:"options,omitempty" gorm:"serializer:json"`
	NumericalAnswer *NumericalAnswer            `json:"numerical_answer,omitempty" gorm:"serializer:json"`
	ExpectedAnswer  *string                     `json:"expected_answer,omitempty" gorm:"type:text"`
	Keywords        datatypes.JSONSlice[string] `json:"keywords,omitempty"`

	// Lifetime usage counters shared across all quizzes. Updated with atomic
	// SQL increments, so concurrent sessions never need to lock a question.
	UsageCount      int `json:"usage_count" gorm:"not null;default:0"`
	CorrectAttempts int `json:"correct_attempts" gorm:"not null;default:0"`
	TotalAttempts   int `json:"total_attempts" gorm:"not null;default:0"`

	IsActive  bool           `json:"is_active" gorm:"default:true;index"`
	CreatedBy uint           `json:"created_by" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOptionIDs returns the ids of every option flagged correct.
func (q *Question) CorrectOptionIDs() []string {
	var ids []string
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// SuccessRate is the historical percentage of correct attempts. Questions that
// have never been attempted report the neutral default of 50%.
func (q *Question) SuccessRate() float64 {
	if q.TotalAttempts == 0 {
		return 50
	}
	return float64(q.CorrectAttempts) / float64(q.TotalAttempts) * 100
}
