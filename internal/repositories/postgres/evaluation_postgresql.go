package postgres

import (
	"context"
	"errors"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EvaluationPostgreSQL struct {
	db *gorm.DB
}

func NewEvaluationPostgreSQL(db *gorm.DB) repositories.EvaluationRepository {
	return &EvaluationPostgreSQL{db: db}
}

func (e *EvaluationPostgreSQL) Save(ctx context.Context, result *models.EvaluationResult) error {
	// One evaluation per session. Manual evaluation regenerates the result,
	// so an existing row for the session is replaced in place.
	return e.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(result).Error
}

func (e *EvaluationPostgreSQL) GetBySessionID(ctx context.Context, sessionID uint) (*models.EvaluationResult, error) {
	var result models.EvaluationResult
	if err := e.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (e *EvaluationPostgreSQL) GetByStudent(ctx context.Context, quizID, studentID uint, limit int) ([]*models.EvaluationResult, error) {
	var results []*models.EvaluationResult
	query := e.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("generated_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
