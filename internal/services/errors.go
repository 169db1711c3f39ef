package services

import (
	"errors"

	apperrors "github.com/EduCore-2025/quiz-engine-service/internal/errors"
	"github.com/EduCore-2025/quiz-engine-service/internal/grading"
	"github.com/EduCore-2025/quiz-engine-service/internal/selection"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// Quiz specific errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizNotPublished = errors.New("quiz is not published")

	// Question specific errors
	ErrQuestionNotFound       = errors.New("question not found")
	ErrQuestionInvalidContent = errors.New("invalid question content for type")

	// Session specific errors
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionAccessDenied   = errors.New("access denied to session")
	ErrSessionNotActive      = errors.New("session is not active")
	ErrSessionExpired        = errors.New("session time has expired")
	ErrSessionNotSubmittable = errors.New("session cannot be submitted in current status")
	ErrSessionNotCompleted   = errors.New("session is not completed")
	ErrAttemptLimitExceeded  = errors.New("maximum attempts exceeded")

	// Evaluation specific errors
	ErrEvaluationNotFound = errors.New("evaluation not found")

	// Re-exported engine errors so callers can match on one package.
	ErrNoQuestionsAvailable = selection.ErrNoQuestionsAvailable
	ErrInvalidCriteria      = selection.ErrInvalidCriteria
	ErrMarksOutOfRange      = grading.ErrMarksOutOfRange
	ErrQuestionNotInSession = grading.ErrQuestionNotInSession
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from the errors package.
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrEvaluationNotFound)
}

// IsValidation checks if error represents a validation failure.
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidCriteria) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionNotActive) ||
		errors.Is(err, ErrSessionNotSubmittable) ||
		errors.Is(err, ErrAttemptLimitExceeded)
}
