package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"github.com/go-playground/validator/v10"
)

type QuizService interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Publish(ctx context.Context, id uint) (*models.Quiz, error)
}

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validate
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, validate *validator.Validate) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: validate,
	}
}

func (s *quizService) Create(ctx context.Context, quiz *models.Quiz) error {
	if err := s.validateQuiz(quiz); err != nil {
		return err
	}
	if quiz.Status == "" {
		quiz.Status = models.QuizStatusDraft
	}

	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created",
		"quiz_id", quiz.ID,
		"course_id", quiz.CourseID,
		"total_questions", quiz.QuestionConfig.TotalQuestions)
	return nil
}

func (s *quizService) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, quiz *models.Quiz) error {
	if err := s.validateQuiz(quiz); err != nil {
		return err
	}

	if _, err := s.GetByID(ctx, quiz.ID); err != nil {
		return err
	}

	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz updated", "quiz_id", quiz.ID)
	return nil
}

func (s *quizService) Publish(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	quiz.Status = models.QuizStatusPublished
	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to publish quiz: %w", err)
	}

	s.logger.Info("Quiz published", "quiz_id", quiz.ID)
	return quiz, nil
}

// validateQuiz checks the struct tags plus the weightage invariants the
// selection pipeline depends on.
func (s *quizService) validateQuiz(quiz *models.Quiz) error {
	if err := s.validator.Struct(quiz); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	var errs ValidationErrors
	if quiz.QuestionConfig.TotalQuestions <= 0 {
		errs = append(errs, *NewValidationError("question_config.total_questions",
			"must be positive", quiz.QuestionConfig.TotalQuestions))
	}
	for topic, weight := range quiz.QuestionConfig.TopicWeightage {
		if weight < 0 {
			errs = append(errs, *NewValidationError("question_config.topic_weightage",
				fmt.Sprintf("weight for %q must not be negative", topic), weight))
		}
	}
	for questionType := range quiz.QuestionConfig.TypeDistribution {
		if !questionType.IsValid() {
			errs = append(errs, *NewValidationError("question_config.type_distribution",
				fmt.Sprintf("unknown question type %q", questionType), nil))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
