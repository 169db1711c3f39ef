package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type QuestionService interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Deactivate(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
}

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validate
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validate *validator.Validate) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: validate,
	}
}

func (s *questionService) Create(ctx context.Context, question *models.Question) error {
	if err := s.validateQuestion(question); err != nil {
		return err
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created",
		"question_id", question.ID,
		"course_id", question.CourseID,
		"type", question.Type,
		"topic", question.Topic)
	return nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (s *questionService) Update(ctx context.Context, question *models.Question) error {
	if err := s.validateQuestion(question); err != nil {
		return err
	}

	existing, err := s.repo.Question().GetByID(ctx, question.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	// Lifetime counters are owned by the grading side; an edit never resets
	// them. Active sessions are unaffected either way, they grade against
	// their own snapshots.
	question.UsageCount = existing.UsageCount
	question.CorrectAttempts = existing.CorrectAttempts
	question.TotalAttempts = existing.TotalAttempts

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated", "question_id", question.ID)
	return nil
}

func (s *questionService) Deactivate(ctx context.Context, id uint) error {
	if err := s.repo.Question().Deactivate(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to deactivate question: %w", err)
	}

	s.logger.Info("Question deactivated", "question_id", id)
	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	questions, total, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

// ===== CONTENT VALIDATION =====

// validateQuestion runs the struct tags first, then the per-type content
// rules. Option ids are assigned here so clients never have to invent them.
func (s *questionService) validateQuestion(question *models.Question) error {
	if err := s.validator.Struct(question); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	for i := range question.Options {
		if question.Options[i].ID == "" {
			question.Options[i].ID = uuid.NewString()
		}
	}

	var errs ValidationErrors
	switch question.Type {
	case models.QuestionTypeMCQSingle:
		errs = validateOptionList(question, 2, 1, 1)
	case models.QuestionTypeMCQMultiple:
		errs = validateOptionList(question, 2, 1, len(question.Options))
	case models.QuestionTypeTrueFalse:
		errs = validateTrueFalseContent(question)
	case models.QuestionTypeNumerical:
		errs = validateNumericalContent(question)
	case models.QuestionTypeCaseBased:
		errs = validateOptionList(question, 2, 1, len(question.Options))
		if question.CaseStudy == nil || *question.CaseStudy == "" {
			errs = append(errs, *NewValidationError("case_study", "is required for case-based questions", nil))
		}
	case models.QuestionTypeShortAnswer, models.QuestionTypeLongAnswer:
		if len(question.Options) > 0 {
			errs = append(errs, *NewValidationError("options", "must be empty for free-text questions", nil))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateOptionList(question *models.Question, minOptions, minCorrect, maxCorrect int) ValidationErrors {
	var errs ValidationErrors

	if len(question.Options) < minOptions {
		errs = append(errs, *NewValidationError("options",
			fmt.Sprintf("must have at least %d options", minOptions), len(question.Options)))
	}

	correct := 0
	for i, option := range question.Options {
		if option.Text == "" {
			errs = append(errs, *NewValidationError(
				fmt.Sprintf("options[%d].text", i), "is required", nil))
		}
		if option.IsCorrect {
			correct++
		}
	}
	if correct < minCorrect || correct > maxCorrect {
		errs = append(errs, *NewValidationError("options",
			fmt.Sprintf("must have between %d and %d correct options", minCorrect, maxCorrect), correct))
	}
	return errs
}

func validateTrueFalseContent(question *models.Question) ValidationErrors {
	var errs ValidationErrors
	if len(question.Options) != 2 {
		errs = append(errs, *NewValidationError("options",
			"must have exactly 2 options", len(question.Options)))
		return errs
	}
	correct := 0
	for _, option := range question.Options {
		if option.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		errs = append(errs, *NewValidationError("options",
			"must have exactly one correct option", correct))
	}
	return errs
}

func validateNumericalContent(question *models.Question) ValidationErrors {
	var errs ValidationErrors
	if question.NumericalAnswer == nil {
		errs = append(errs, *NewValidationError("numerical_answer", "is required for numerical questions", nil))
		return errs
	}
	if question.NumericalAnswer.Tolerance < 0 {
		errs = append(errs, *NewValidationError("numerical_answer.tolerance",
			"must not be negative", question.NumericalAnswer.Tolerance))
	}
	if len(question.Options) > 0 {
		errs = append(errs, *NewValidationError("options", "must be empty for numerical questions", nil))
	}
	return errs
}
