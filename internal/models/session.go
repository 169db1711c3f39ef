package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionInProgress    SessionStatus = "in_progress"
	SessionSubmitted     SessionStatus = "submitted"
	SessionAutoSubmitted SessionStatus = "auto_submitted"
	SessionEvaluating    SessionStatus = "evaluating"
	SessionCompleted     SessionStatus = "completed"
	SessionExpired       SessionStatus = "expired"
)

// IsTerminal reports whether no further student interaction is possible.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionExpired:
		return true
	}
	return false
}

// SnapshotOption is an option copied into a session snapshot, carrying the
// display order assigned at selection time.
type SnapshotOption struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	IsCorrect    bool   `json:"is_correct"`
	DisplayOrder int    `json:"display_order"`
}

// QuestionSnapshot is the immutable copy of a question's gradable fields
// captured when the session is created. All grading and analytics read this
// snapshot, never the live question row, so later edits to the question can
// not change an in-progress or completed session.
type QuestionSnapshot struct {
	Text            string           `json:"text"`
	Type            QuestionType     `json:"type"`
	CaseStudy       *string          `json:"case_study,omitempty"`
	Topic           string           `json:"topic"`
	Difficulty      DifficultyLevel  `json:"difficulty"`
	Marks           float64          `json:"marks"`
	NegativeMarks   float64          `json:"negative_marks"`
	Options         []SnapshotOption `json:"options,omitempty"`
	NumericalAnswer *NumericalAnswer `json:"numerical_answer,omitempty"`
}

// CorrectOptionIDs returns the ids of every snapshot option flagged correct.
func (s *QuestionSnapshot) CorrectOptionIDs() []string {
	var ids []string
	for _, opt := range s.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// SelectedQuestion binds a chosen question to a session. OriginalOrder is the
// position produced by the selection strategy; DisplayOrder is the position
// shown to the student after any shuffle.
type SelectedQuestion struct {
	QuestionID    uint             `json:"question_id"`
	OriginalOrder int              `json:"original_order"`
	DisplayOrder  int              `json:"display_order"`
	Snapshot      QuestionSnapshot `json:"snapshot"`
}

// Answer is a student's recorded answer for one selected question.
// Value holds whatever shape the question type calls for (an option id, a
// list of option ids, a number or free text), so it stays raw JSON until the
// validator interprets it. IsCorrect nil means the answer is awaiting manual
// evaluation, which is an expected state for free-text types, not an error.
type Answer struct {
	QuestionID           uint           `json:"question_id"`
	Value                datatypes.JSON `json:"value,omitempty"`
	IsCorrect            *bool          `json:"is_correct,omitempty"`
	MarksAwarded         float64        `json:"marks_awarded"`
	NegativeMarksApplied float64        `json:"negative_marks_applied"`
	TimeSpentSeconds     int            `json:"time_spent_seconds"`
	IsMarkedForReview    bool           `json:"is_marked_for_review"`
	ManualFeedback       *string        `json:"manual_feedback,omitempty"`
	EvaluatedBy          *uint          `json:"evaluated_by,omitempty"`
	EvaluatedAt          *time.Time     `json:"evaluated_at,omitempty"`
}

// IsAttempted reports whether the student actually supplied a value.
func (a *Answer) IsAttempted() bool {
	if len(a.Value) == 0 {
		return false
	}
	s := string(a.Value)
	return s != "null" && s != `""` && s != "[]"
}

type QuizSession struct {
	ID            uint `json:"id" gorm:"primaryKey"`
	QuizID        uint `json:"quiz_id" gorm:"not null;index:idx_sessions_quiz_student"`
	StudentID     uint `json:"student_id" gorm:"not null;index:idx_sessions_quiz_student"`
	AttemptNumber int  `json:"attempt_number" gorm:"not null;default:1"`

	SelectedQuestions []SelectedQuestion `json:"selected_questions" gorm:"serializer:json"`
	Answers           []Answer           `json:"answers" gorm:"serializer:json"`

	AutoScore   float64 `json:"auto_score" gorm:"not null;default:0"`
	ManualScore float64 `json:"manual_score" gorm:"not null;default:0"`
	TotalScore  float64 `json:"total_score" gorm:"not null;default:0"`
	TotalMarks  float64 `json:"total_marks" gorm:"not null;default:0"`
	Percentage  float64 `json:"percentage" gorm:"not null;default:0"`
	Passed      bool    `json:"passed" gorm:"default:false"`

	PendingManualEvaluation      bool                      `json:"pending_manual_evaluation" gorm:"default:false"`
	QuestionsForManualEvaluation datatypes.JSONSlice[uint] `json:"questions_for_manual_evaluation,omitempty"`

	Status      SessionStatus `json:"status" gorm:"not null;default:in_progress;index"`
	StartedAt   time.Time     `json:"started_at"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// FindSelectedQuestion returns the selected question for questionID, or nil.
func (s *QuizSession) FindSelectedQuestion(questionID uint) *SelectedQuestion {
	for i := range s.SelectedQuestions {
		if s.SelectedQuestions[i].QuestionID == questionID {
			return &s.SelectedQuestions[i]
		}
	}
	return nil
}

// FindAnswer returns the recorded answer for questionID, or nil.
func (s *QuizSession) FindAnswer(questionID uint) *Answer {
	for i := range s.Answers {
		if s.Answers[i].QuestionID == questionID {
			return &s.Answers[i]
		}
	}
	return nil
}
