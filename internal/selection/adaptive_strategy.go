package selection

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
)

// Fitness score weights. Each bonus rewards one desirable property of a
// candidate question; the noise term breaks ties so repeat attempts do not
// replay an identical paper.
const (
	fitnessBase = 100.0

	difficultyMatchBonus   = 25.0
	difficultyMismatchStep = 10.0

	topicWeaknessFactor = 0.3
	unknownTopicBonus   = 15.0

	optimalSuccessRate    = 65.0
	successRateBonusCap   = 20.0
	successRateBonusSlope = 0.4

	varietyBonusCap   = 15.0
	varietyUsageSlope = 0.5

	noiseRange = 10.0
)

// AdaptiveStrategy assembles a quiz by scoring every candidate against the
// student's performance profile and picking in descending score order. Weak
// topics, well-calibrated questions and rarely used questions all score
// higher, so the attempt leans toward material the student needs most.
type AdaptiveStrategy struct {
	strategyBase
}

func NewAdaptiveStrategy(source QuestionSource, rng *rand.Rand, logger *slog.Logger) *AdaptiveStrategy {
	return &AdaptiveStrategy{
		strategyBase: strategyBase{
			source: source,
			rng:    rng,
			logger: logger,
		},
	}
}

func (s *AdaptiveStrategy) Kind() StrategyKind {
	return StrategyAdaptive
}

func (s *AdaptiveStrategy) Select(ctx context.Context, criteria Criteria) ([]models.SelectedQuestion, error) {
	if err := s.validateCriteria(criteria); err != nil {
		return nil, err
	}

	candidates, err := s.loadCandidates(ctx, criteria)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Score once per selection; noise is frozen into the score so ranking is
	// consistent across every tier of the same selection.
	scores := make(map[uint]float64, len(candidates))
	for _, question := range candidates {
		scores[question.ID] = s.fitnessScore(question, criteria) + s.rng.Float64()*noiseRange
	}
	byScore := func(pool []*models.Question) []*models.Question {
		ranked := make([]*models.Question, len(pool))
		copy(ranked, pool)
		sort.SliceStable(ranked, func(i, j int) bool {
			return scores[ranked[i].ID] > scores[ranked[j].ID]
		})
		return ranked
	}

	chosen := s.distribute(candidates, criteria, byScore)
	selected := s.finalize(chosen, criteria)

	s.logger.Info("selected questions for session",
		"strategy", s.Kind(),
		"course_id", criteria.CourseID,
		"requested", criteria.TotalQuestions,
		"selected", len(selected))
	return selected, nil
}

// fitnessScore computes the deterministic part of a question's score for this
// student and target difficulty.
func (s *AdaptiveStrategy) fitnessScore(question *models.Question, criteria Criteria) float64 {
	score := fitnessBase

	// Exact difficulty match earns the full bonus; each step away costs a
	// fixed amount, going slightly negative for an easy/hard mismatch.
	distance := math.Abs(float64(criteria.Difficulty.Index() - question.Difficulty.Index()))
	score += difficultyMatchBonus - difficultyMismatchStep*distance

	// Weaker topics score higher so remediation material is surfaced first.
	if accuracy, known := s.topicAccuracy(criteria, question.Topic); known {
		score += (100 - accuracy) * topicWeaknessFactor
	} else {
		score += unknownTopicBonus
	}

	// Questions that most students get right about two thirds of the time
	// discriminate best; reward proximity to that rate.
	score += math.Max(0, successRateBonusCap-successRateBonusSlope*math.Abs(question.SuccessRate()-optimalSuccessRate))

	// Heavily used questions fade out of rotation.
	score += math.Max(0, varietyBonusCap-varietyUsageSlope*float64(question.UsageCount))

	return score
}

func (s *AdaptiveStrategy) topicAccuracy(criteria Criteria, topic string) (float64, bool) {
	if criteria.Performance == nil {
		return 0, false
	}
	accuracy, ok := criteria.Performance.TopicAccuracy[topic]
	return accuracy, ok
}
