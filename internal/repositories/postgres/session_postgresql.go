package postgres

import (
	"context"
	"errors"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s *SessionPostgreSQL) Create(ctx context.Context, session *models.QuizSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizSession, error) {
	var session models.QuizSession
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) Update(ctx context.Context, session *models.QuizSession) error {
	return s.db.WithContext(ctx).Save(session).Error
}

func (s *SessionPostgreSQL) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.QuizSession, int64, error) {
	var sessions []*models.QuizSession
	var total int64

	query := s.db.WithContext(ctx).Model(&models.QuizSession{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at desc")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (s *SessionPostgreSQL) GetActiveSession(ctx context.Context, quizID, studentID uint) (*models.QuizSession, error) {
	var session models.QuizSession
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, models.SessionInProgress).
		Order("started_at desc").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetAttemptCount(ctx context.Context, quizID, studentID uint) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *SessionPostgreSQL) GetRecentCompleted(ctx context.Context, quizID, studentID uint, limit int) ([]*models.QuizSession, error) {
	var sessions []*models.QuizSession
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, models.SessionCompleted).
		Order("completed_at desc").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionPostgreSQL) ListPendingEvaluation(ctx context.Context, quizID uint, limit int) ([]*models.QuizSession, error) {
	var sessions []*models.QuizSession
	query := s.db.WithContext(ctx).
		Where("status = ?", models.SessionEvaluating)
	if quizID != 0 {
		query = query.Where("quiz_id = ?", quizID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Order("submitted_at asc").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}
