package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Save(question).Error
}

func (q *QuestionPostgreSQL) Deactivate(ctx context.Context, id uint) error {
	result := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Question{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.applyPaginationAndSort(query, filters)
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q *QuestionPostgreSQL) GetSelectionPool(ctx context.Context, courseID uint, excludeIDs []uint) ([]*models.Question, error) {
	var questions []*models.Question

	query := q.db.WithContext(ctx).
		Where("course_id = ? AND is_active = ?", courseID, true)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	if err := query.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to load selection pool: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) IncrementUsage(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id IN ?", ids).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error
}

func (q *QuestionPostgreSQL) RecordAttemptResult(ctx context.Context, id uint, correct bool) error {
	updates := map[string]interface{}{
		"total_attempts": gorm.Expr("total_attempts + ?", 1),
	}
	if correct {
		updates["correct_attempts"] = gorm.Expr("correct_attempts + ?", 1)
	}
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

func (q *QuestionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Topic != nil {
		query = query.Where("topic = ?", *filters.Topic)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	return query
}

func (q *QuestionPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "topic", "usage_count", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "desc"
	if filters.SortOrder == "asc" {
		sortOrder = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
