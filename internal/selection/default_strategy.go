package selection

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
)

// DefaultStrategy assembles a quiz by uniform random sampling within the
// topic-weightage and difficulty constraints. Every candidate in a tier has
// the same chance of being picked.
type DefaultStrategy struct {
	strategyBase
}

func NewDefaultStrategy(source QuestionSource, rng *rand.Rand, logger *slog.Logger) *DefaultStrategy {
	return &DefaultStrategy{
		strategyBase: strategyBase{
			source: source,
			rng:    rng,
			logger: logger,
		},
	}
}

func (s *DefaultStrategy) Kind() StrategyKind {
	return StrategyDefault
}

func (s *DefaultStrategy) Select(ctx context.Context, criteria Criteria) ([]models.SelectedQuestion, error) {
	if err := s.validateCriteria(criteria); err != nil {
		return nil, err
	}

	candidates, err := s.loadCandidates(ctx, criteria)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chosen := s.distribute(candidates, criteria, s.shuffledCopy)
	selected := s.finalize(chosen, criteria)

	s.logger.Info("selected questions for session",
		"strategy", s.Kind(),
		"course_id", criteria.CourseID,
		"requested", criteria.TotalQuestions,
		"selected", len(selected))
	return selected, nil
}
