package events

import (
	"time"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/google/uuid"
)

// EventType represents the quiz lifecycle events this service publishes.
type EventType string

const (
	// Session events
	EventSessionStarted    EventType = "session.started"
	EventSessionSubmitted  EventType = "session.submitted"
	EventSessionExpired    EventType = "session.expired"
	EventSessionCompleted  EventType = "session.completed"
	EventSessionEvaluating EventType = "session.evaluating"

	// Evaluation events
	EventEvaluationGenerated       EventType = "evaluation.generated"
	EventManualEvaluationCompleted EventType = "evaluation.manual_completed"
)

const eventSource = "quiz-engine-service"

// QuizEvent is the envelope every published event shares.
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewQuizEvent wraps a payload in the standard envelope.
func NewQuizEvent(eventType EventType, data interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

// Session event payloads

type SessionStartedEvent struct {
	SessionID     uint      `json:"session_id"`
	QuizID        uint      `json:"quiz_id"`
	StudentID     uint      `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	QuestionCount int       `json:"question_count"`
	Strategy      string    `json:"strategy"`
	StartedAt     time.Time `json:"started_at"`
}

type SessionSubmittedEvent struct {
	SessionID        uint                 `json:"session_id"`
	QuizID           uint                 `json:"quiz_id"`
	StudentID        uint                 `json:"student_id"`
	SubmittedAt      time.Time            `json:"submitted_at"`
	AutoSubmitted    bool                 `json:"auto_submitted"`
	Status           models.SessionStatus `json:"status"`
	AutoScore        float64              `json:"auto_score"`
	PendingQuestions int                  `json:"pending_questions"`
}

type SessionCompletedEvent struct {
	SessionID   uint      `json:"session_id"`
	QuizID      uint      `json:"quiz_id"`
	StudentID   uint      `json:"student_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalScore  float64   `json:"total_score"`
	TotalMarks  float64   `json:"total_marks"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
}

// Evaluation event payloads

type EvaluationGeneratedEvent struct {
	SessionID   uint      `json:"session_id"`
	QuizID      uint      `json:"quiz_id"`
	StudentID   uint      `json:"student_id"`
	Grade       string    `json:"grade"`
	WeakAreas   []string  `json:"weak_areas,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ManualEvaluationCompletedEvent struct {
	SessionID        uint      `json:"session_id"`
	QuizID           uint      `json:"quiz_id"`
	StudentID        uint      `json:"student_id"`
	EvaluatorID      uint      `json:"evaluator_id"`
	QuestionsGraded  int       `json:"questions_graded"`
	RemainingPending int       `json:"remaining_pending"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}
