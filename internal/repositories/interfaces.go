package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err represents a missing record, from
// either this package or gorm directly.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	CourseID   *uint                   `json:"course_id"`
	Topic      *string                 `json:"topic"`
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	IsActive   *bool                   `json:"is_active"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "topic", "usage_count"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type SessionFilters struct {
	QuizID    *uint                 `json:"quiz_id"`
	StudentID *uint                 `json:"student_id"`
	Status    *models.SessionStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Deactivate(ctx context.Context, id uint) error
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)

	// GetSelectionPool returns every active question of the course excluding
	// the given ids. It is the candidate pool the selection strategies draw
	// from; the caller applies topic/difficulty constraints in memory.
	GetSelectionPool(ctx context.Context, courseID uint, excludeIDs []uint) ([]*models.Question, error)

	// IncrementUsage bumps usage_count for every selected question.
	IncrementUsage(ctx context.Context, ids []uint) error

	// RecordAttemptResult bumps the lifetime attempt counters after grading.
	// Increments are applied as atomic SQL expressions so concurrent sessions
	// only contend on the database row, never on application state.
	RecordAttemptResult(ctx context.Context, id uint, correct bool) error
}

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.QuizSession) error
	GetByID(ctx context.Context, id uint) (*models.QuizSession, error)
	Update(ctx context.Context, session *models.QuizSession) error
	List(ctx context.Context, filters SessionFilters) ([]*models.QuizSession, int64, error)

	GetActiveSession(ctx context.Context, quizID, studentID uint) (*models.QuizSession, error)
	GetAttemptCount(ctx context.Context, quizID, studentID uint) (int, error)

	// GetRecentCompleted returns up to limit completed sessions for the same
	// quiz and student, most recent first. Feeds the trend comparison.
	GetRecentCompleted(ctx context.Context, quizID, studentID uint, limit int) ([]*models.QuizSession, error)

	// ListPendingEvaluation returns sessions sitting in evaluating status,
	// oldest first, for the tutor-facing manual grading queue.
	ListPendingEvaluation(ctx context.Context, quizID uint, limit int) ([]*models.QuizSession, error)
}

type EvaluationRepository interface {
	// Save inserts the evaluation for a session or replaces it when manual
	// evaluation amends an already generated result.
	Save(ctx context.Context, result *models.EvaluationResult) error
	GetBySessionID(ctx context.Context, sessionID uint) (*models.EvaluationResult, error)
	GetByStudent(ctx context.Context, quizID, studentID uint, limit int) ([]*models.EvaluationResult, error)
}

// Repository aggregates access to all repositories behind one handle.
type Repository interface {
	Question() QuestionRepository
	Quiz() QuizRepository
	Session() SessionRepository
	Evaluation() EvaluationRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}
