package services

import (
	"context"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// ===== REPOSITORY MOCKS =====

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	return m.Called(ctx, question).Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx context.Context, question *models.Question) error {
	return m.Called(ctx, question).Error(0)
}

func (m *MockQuestionRepository) Deactivate(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQuestionRepository) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, filters)
	var questions []*models.Question
	if args.Get(0) != nil {
		questions = args.Get(0).([]*models.Question)
	}
	return questions, args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionRepository) GetSelectionPool(ctx context.Context, courseID uint, excludeIDs []uint) ([]*models.Question, error) {
	args := m.Called(ctx, courseID, excludeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) IncrementUsage(ctx context.Context, ids []uint) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockQuestionRepository) RecordAttemptResult(ctx context.Context, id uint, correct bool) error {
	return m.Called(ctx, id, correct).Error(0)
}

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return m.Called(ctx, quiz).Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return m.Called(ctx, quiz).Error(0)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.QuizSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uint) (*models.QuizSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, session *models.QuizSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.QuizSession, int64, error) {
	args := m.Called(ctx, filters)
	var sessions []*models.QuizSession
	if args.Get(0) != nil {
		sessions = args.Get(0).([]*models.QuizSession)
	}
	return sessions, args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionRepository) GetActiveSession(ctx context.Context, quizID, studentID uint) (*models.QuizSession, error) {
	args := m.Called(ctx, quizID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) GetAttemptCount(ctx context.Context, quizID, studentID uint) (int, error) {
	args := m.Called(ctx, quizID, studentID)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionRepository) GetRecentCompleted(ctx context.Context, quizID, studentID uint, limit int) ([]*models.QuizSession, error) {
	args := m.Called(ctx, quizID, studentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) ListPendingEvaluation(ctx context.Context, quizID uint, limit int) ([]*models.QuizSession, error) {
	args := m.Called(ctx, quizID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuizSession), args.Error(1)
}

type MockEvaluationRepository struct {
	mock.Mock
}

func (m *MockEvaluationRepository) Save(ctx context.Context, result *models.EvaluationResult) error {
	return m.Called(ctx, result).Error(0)
}

func (m *MockEvaluationRepository) GetBySessionID(ctx context.Context, sessionID uint) (*models.EvaluationResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EvaluationResult), args.Error(1)
}

func (m *MockEvaluationRepository) GetByStudent(ctx context.Context, quizID, studentID uint, limit int) ([]*models.EvaluationResult, error) {
	args := m.Called(ctx, quizID, studentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EvaluationResult), args.Error(1)
}

// MockRepository aggregates the sub-mocks behind the Repository interface.
type MockRepository struct {
	QuestionRepo   *MockQuestionRepository
	QuizRepo       *MockQuizRepository
	SessionRepo    *MockSessionRepository
	EvaluationRepo *MockEvaluationRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		QuestionRepo:   new(MockQuestionRepository),
		QuizRepo:       new(MockQuizRepository),
		SessionRepo:    new(MockSessionRepository),
		EvaluationRepo: new(MockEvaluationRepository),
	}
}

func (m *MockRepository) Question() repositories.QuestionRepository     { return m.QuestionRepo }
func (m *MockRepository) Quiz() repositories.QuizRepository             { return m.QuizRepo }
func (m *MockRepository) Session() repositories.SessionRepository       { return m.SessionRepo }
func (m *MockRepository) Evaluation() repositories.EvaluationRepository { return m.EvaluationRepo }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }
