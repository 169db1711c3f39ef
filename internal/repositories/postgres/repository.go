package postgres

import (
	"context"

	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository is the PostgreSQL-backed implementation of
// repositories.Repository. All sub-repositories share one *gorm.DB, so a
// transactional handle produced by WithTransaction covers every table.
type Repository struct {
	db         *gorm.DB
	question   repositories.QuestionRepository
	quiz       repositories.QuizRepository
	session    repositories.SessionRepository
	evaluation repositories.EvaluationRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:         db,
		question:   NewQuestionPostgreSQL(db),
		quiz:       NewQuizPostgreSQL(db),
		session:    NewSessionPostgreSQL(db),
		evaluation: NewEvaluationPostgreSQL(db),
	}
}

func (r *Repository) Question() repositories.QuestionRepository     { return r.question }
func (r *Repository) Quiz() repositories.QuizRepository             { return r.quiz }
func (r *Repository) Session() repositories.SessionRepository       { return r.session }
func (r *Repository) Evaluation() repositories.EvaluationRepository { return r.evaluation }

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
