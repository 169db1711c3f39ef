package utils

import (
	"reflect"
	"strings"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/selection"
	"github.com/go-playground/validator/v10"
)

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).IsValid()
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	return models.DifficultyLevel(fl.Field().String()).IsValid()
}

func ValidateSelectionStrategy(fl validator.FieldLevel) bool {
	return selection.StrategyKind(fl.Field().String()).IsValid()
}

// NewValidator builds a validator with every custom rule registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return validate
}

// RegisterCustomValidators registers the domain rules used in model tags.
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)
	validate.RegisterValidation("selection_strategy", ValidateSelectionStrategy)

	// Report json field names in error messages instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
