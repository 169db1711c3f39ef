package models

import (
	"time"

	"gorm.io/gorm"
)

type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusArchived  QuizStatus = "archived"
)

// QuestionConfig controls how many questions a session draws and how they are
// distributed across topics, types and difficulty levels. Weights are
// proportional targets, not hard quotas.
type QuestionConfig struct {
	TotalQuestions         int                         `json:"total_questions" validate:"required,min=1"`
	TopicWeightage         map[string]float64          `json:"topic_weightage,omitempty"`
	TypeDistribution       map[QuestionType]float64    `json:"type_distribution,omitempty"`
	DifficultyDistribution map[DifficultyLevel]float64 `json:"difficulty_distribution,omitempty"`
}

type QuizSettings struct {
	ShuffleQuestions bool `json:"shuffle_questions"`
	ShuffleOptions   bool `json:"shuffle_options"`
}

type Quiz struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;index" validate:"required"`
	Title    string `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`

	DurationMinutes   int             `json:"duration_minutes" gorm:"not null" validate:"required,min=1,max=300"`
	PassingPercentage float64         `json:"passing_percentage" gorm:"not null;default:40" validate:"min=0,max=100"`
	Difficulty        DifficultyLevel `json:"difficulty" gorm:"not null;default:medium" validate:"required,difficulty_level"`
	NegativeMarking   bool            `json:"negative_marking" gorm:"default:false"`
	MaxAttempts       int             `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`

	// SelectionStrategy names the registered strategy used to assemble each
	// attempt ("default" or "adaptive").
	SelectionStrategy string `json:"selection_strategy" gorm:"not null;default:default" validate:"omitempty,selection_strategy"`

	QuestionConfig QuestionConfig `json:"question_config" gorm:"serializer:json"`
	Settings       QuizSettings   `json:"settings" gorm:"serializer:json"`

	Status    QuizStatus     `json:"status" gorm:"default:draft;index"`
	CreatedBy uint           `json:"created_by" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
