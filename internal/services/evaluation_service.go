package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EduCore-2025/quiz-engine-service/internal/cache"
	"github.com/EduCore-2025/quiz-engine-service/internal/evaluation"
	"github.com/EduCore-2025/quiz-engine-service/internal/events"
	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
)

// evaluationCacheTTL keeps generated reports hot for the results screen
// without letting a manual revision serve stale data for long.
const evaluationCacheTTL = time.Hour

type EvaluationService interface {
	// GenerateForSession builds and persists the analytics report for a
	// completed session, replacing any earlier report.
	GenerateForSession(ctx context.Context, sessionID uint) (*models.EvaluationResult, error)

	GetBySession(ctx context.Context, sessionID uint) (*models.EvaluationResult, error)
	GetStudentHistory(ctx context.Context, quizID, studentID uint, limit int) ([]*models.EvaluationResult, error)

	// Regenerate refreshes the report after a manual grade revision. Best
	// effort: failures are logged, not returned.
	Regenerate(ctx context.Context, session *models.QuizSession)
}

type evaluationService struct {
	repo      repositories.Repository
	generator *evaluation.Generator
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    *slog.Logger
}

func NewEvaluationService(
	repo repositories.Repository,
	generator *evaluation.Generator,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
) EvaluationService {
	return &evaluationService{
		repo:      repo,
		generator: generator,
		publisher: publisher,
		cache:     cacheService,
		logger:    logger,
	}
}

func (s *evaluationService) GenerateForSession(ctx context.Context, sessionID uint) (*models.EvaluationResult, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.Status != models.SessionCompleted {
		return nil, ErrSessionNotCompleted
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, session.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	history, err := s.priorSessions(ctx, session)
	if err != nil {
		return nil, err
	}

	result, err := s.generator.Generate(session, quiz, history)
	if err != nil {
		return nil, fmt.Errorf("failed to generate evaluation: %w", err)
	}

	if err := s.repo.Evaluation().Save(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}
	s.cacheResult(ctx, result)

	if s.publisher != nil {
		event := events.NewQuizEvent(events.EventEvaluationGenerated, events.EvaluationGeneratedEvent{
			SessionID:   result.SessionID,
			QuizID:      result.QuizID,
			StudentID:   result.StudentID,
			Grade:       result.Grade,
			WeakAreas:   result.WeakAreas,
			GeneratedAt: result.GeneratedAt,
		})
		if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
			s.logger.Warn("failed to publish evaluation event", "error", err)
		}
	}

	return result, nil
}

func (s *evaluationService) GetBySession(ctx context.Context, sessionID uint) (*models.EvaluationResult, error) {
	if s.cache != nil {
		var cached models.EvaluationResult
		if err := s.cache.Get(ctx, cache.EvaluationKey(sessionID), &cached); err == nil {
			return &cached, nil
		}
	}

	result, err := s.repo.Evaluation().GetBySessionID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	s.cacheResult(ctx, result)
	return result, nil
}

func (s *evaluationService) GetStudentHistory(ctx context.Context, quizID, studentID uint, limit int) ([]*models.EvaluationResult, error) {
	results, err := s.repo.Evaluation().GetByStudent(ctx, quizID, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation history: %w", err)
	}
	return results, nil
}

func (s *evaluationService) Regenerate(ctx context.Context, session *models.QuizSession) {
	if _, err := s.GenerateForSession(ctx, session.ID); err != nil {
		s.logger.Error("failed to regenerate evaluation",
			"session_id", session.ID,
			"error", err)
	}
}

// priorSessions returns the completed sessions that preceded this one, most
// recent first, for the trend comparison.
func (s *evaluationService) priorSessions(ctx context.Context, session *models.QuizSession) ([]*models.QuizSession, error) {
	recent, err := s.repo.Session().GetRecentCompleted(ctx, session.QuizID, session.StudentID, historyWindow+1)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior sessions: %w", err)
	}

	prior := make([]*models.QuizSession, 0, len(recent))
	for _, candidate := range recent {
		if candidate.ID == session.ID {
			continue
		}
		prior = append(prior, candidate)
	}
	if len(prior) > historyWindow {
		prior = prior[:historyWindow]
	}
	return prior, nil
}

func (s *evaluationService) cacheResult(ctx context.Context, result *models.EvaluationResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cache.EvaluationKey(result.SessionID), result, evaluationCacheTTL); err != nil {
		s.logger.Warn("failed to cache evaluation", "session_id", result.SessionID, "error", err)
	}
}
