package selection

import (
	"context"
	"errors"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
)

var (
	// ErrNoQuestionsAvailable is fatal: the course has no candidate questions
	// at all, even after relaxing the exclusion filter. Every other shortfall
	// degrades gracefully through the fallback rules.
	ErrNoQuestionsAvailable = errors.New("no questions available for selection")

	// ErrInvalidCriteria is returned before any sampling begins when the
	// criteria carry unknown enums or non-positive counts.
	ErrInvalidCriteria = errors.New("invalid selection criteria")
)

// StrategyKind names a registered selection strategy. Strategies are chosen
// by this explicit enum, never by reflective lookup.
type StrategyKind string

const (
	StrategyDefault  StrategyKind = "default"
	StrategyAdaptive StrategyKind = "adaptive"
)

func (k StrategyKind) IsValid() bool {
	return k == StrategyDefault || k == StrategyAdaptive
}

// StudentPerformance carries a student's historical accuracy per topic
// (0-100). Missing topics mean the student has no history there.
type StudentPerformance struct {
	StudentID     uint               `json:"student_id"`
	TopicAccuracy map[string]float64 `json:"topic_accuracy"`
}

// Criteria is everything a strategy needs to assemble one quiz attempt.
type Criteria struct {
	CourseID   uint                   `json:"course_id" validate:"required"`
	Difficulty models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`

	TotalQuestions   int                             `json:"total_questions" validate:"required,min=1"`
	TopicWeightage   map[string]float64              `json:"topic_weightage,omitempty"`
	TypeDistribution map[models.QuestionType]float64 `json:"type_distribution,omitempty"`

	ExcludeQuestionIDs []uint `json:"exclude_question_ids,omitempty"`

	ShuffleQuestions bool `json:"shuffle_questions"`
	ShuffleOptions   bool `json:"shuffle_options"`

	// Performance enables weakness-targeted scoring in the adaptive
	// strategy. The default strategy ignores it.
	Performance *StudentPerformance `json:"performance,omitempty"`
}

// QuestionSource is the narrow slice of the question repository the
// strategies consume.
type QuestionSource interface {
	GetSelectionPool(ctx context.Context, courseID uint, excludeIDs []uint) ([]*models.Question, error)
}

// Strategy chooses and orders the questions for one quiz attempt. The
// returned slice carries frozen snapshots; callers persist it as-is.
type Strategy interface {
	Kind() StrategyKind
	Select(ctx context.Context, criteria Criteria) ([]models.SelectedQuestion, error)
}
