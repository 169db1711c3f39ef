package models

import (
	"time"

	"gorm.io/datatypes"
)

// OverallAnalysis summarizes a whole completed session.
type OverallAnalysis struct {
	TotalQuestions int     `json:"total_questions"`
	Attempted      int     `json:"attempted"`
	Correct        int     `json:"correct"`
	Wrong          int     `json:"wrong"`
	Unattempted    int     `json:"unattempted"`
	PendingManual  int     `json:"pending_manual"`
	MarksObtained  float64 `json:"marks_obtained"`
	TotalMarks     float64 `json:"total_marks"`
	Percentage     float64 `json:"percentage"`
	Accuracy       float64 `json:"accuracy"`
}

// TopicAnalysis aggregates performance within one topic, including a
// per-difficulty breakdown inside the topic.
type TopicAnalysis struct {
	Topic            string                              `json:"topic"`
	TotalQuestions   int                                 `json:"total_questions"`
	CorrectAnswers   int                                 `json:"correct_answers"`
	WrongAnswers     int                                 `json:"wrong_answers"`
	Unattempted      int                                 `json:"unattempted"`
	MarksObtained    float64                             `json:"marks_obtained"`
	TotalMarks       float64                             `json:"total_marks"`
	TimeSpentSeconds int                                 `json:"time_spent_seconds"`
	Accuracy         float64                             `json:"accuracy"`
	IsWeakArea       bool                                `json:"is_weak_area"`
	ByDifficulty     map[DifficultyLevel]DifficultyStats `json:"by_difficulty"`
}

// DifficultyStats is the total/correct/accuracy triple used both inside a
// topic and for the session-wide difficulty aggregate.
type DifficultyStats struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// QuestionTypeStats aggregates correctness per question type.
type QuestionTypeStats struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

type TimeRating string

const (
	TimeRatingExcellent TimeRating = "excellent"
	TimeRatingGood      TimeRating = "good"
	TimeRatingAverage   TimeRating = "average"
	TimeRatingPoor      TimeRating = "poor"
)

type SessionTimeAnalysis struct {
	TotalTimeSpentSeconds     int        `json:"total_time_spent_seconds"`
	QuizDurationSeconds       int        `json:"quiz_duration_seconds"`
	TimeUtilization           float64    `json:"time_utilization"`
	AverageSecondsPerQuestion float64    `json:"average_seconds_per_question"`
	TimeManagementRating      TimeRating `json:"time_management_rating"`
}

type SuggestionPriority string

const (
	PriorityHigh   SuggestionPriority = "high"
	PriorityMedium SuggestionPriority = "medium"
)

type SuggestionType string

const (
	SuggestionTopicRevision        SuggestionType = "topic-revision"
	SuggestionTimeManagement       SuggestionType = "time-management"
	SuggestionDifficultyAdjustment SuggestionType = "difficulty-adjustment"
)

type ImprovementSuggestion struct {
	Type     SuggestionType     `json:"type"`
	Topic    string             `json:"topic,omitempty"`
	Priority SuggestionPriority `json:"priority"`
	Message  string             `json:"message"`
}

type Trend string

const (
	TrendImproving    Trend = "improving"
	TrendDeclining    Trend = "declining"
	TrendStable       Trend = "stable"
	TrendFirstAttempt Trend = "first-attempt"
)

// AttemptComparison compares this session against the student's previous
// completed attempts of the same quiz.
type AttemptComparison struct {
	PreviousAttempts int     `json:"previous_attempts"`
	LastScore        float64 `json:"last_score"`
	BestScore        float64 `json:"best_score"`
	AverageScore     float64 `json:"average_score"`
	ScoreImprovement float64 `json:"score_improvement"`
	Trend            Trend   `json:"trend"`
}

type EvaluationResult struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SessionID uint `json:"session_id" gorm:"not null;uniqueIndex"`
	QuizID    uint `json:"quiz_id" gorm:"not null;index"`
	StudentID uint `json:"student_id" gorm:"not null;index"`

	Overall        OverallAnalysis                        `json:"overall" gorm:"serializer:json"`
	Topics         []TopicAnalysis                        `json:"topics" gorm:"serializer:json"`
	ByDifficulty   map[DifficultyLevel]DifficultyStats    `json:"by_difficulty" gorm:"serializer:json"`
	ByQuestionType map[QuestionType]QuestionTypeStats     `json:"by_question_type" gorm:"serializer:json"`
	TimeAnalysis   SessionTimeAnalysis                    `json:"time_analysis" gorm:"serializer:json"`

	WeakAreas   datatypes.JSONSlice[string] `json:"weak_areas,omitempty"`
	StrongAreas datatypes.JSONSlice[string] `json:"strong_areas,omitempty"`

	Suggestions []ImprovementSuggestion `json:"suggestions" gorm:"serializer:json"`
	Comparison  AttemptComparison       `json:"comparison" gorm:"serializer:json"`

	Grade string `json:"grade" gorm:"size:2"`

	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (EvaluationResult) TableName() string {
	return "evaluation_results"
}

// GradeForPercentage maps a percentage to the platform letter grade.
func GradeForPercentage(percentage float64) string {
	switch {
	case percentage >= 95:
		return "A+"
	case percentage >= 85:
		return "A"
	case percentage >= 75:
		return "B+"
	case percentage >= 65:
		return "B"
	case percentage >= 55:
		return "C+"
	case percentage >= 45:
		return "C"
	case percentage >= 35:
		return "D"
	default:
		return "F"
	}
}
