package selection

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
)

// rankFunc orders candidates by descending pick preference. The default
// strategy supplies a random permutation, the adaptive strategy a
// fitness-sorted order, so the shared pipeline below stays identical for
// both.
type rankFunc func(questions []*models.Question) []*models.Question

// strategyBase carries the machinery shared by every strategy: the question
// source, a seeded random generator and the distribution pipeline.
type strategyBase struct {
	source QuestionSource
	logger *slog.Logger

	// rand.Rand is not safe for concurrent use; Select holds the mutex for
	// the duration of one selection.
	mu  sync.Mutex
	rng *rand.Rand
}

// ===== CRITERIA VALIDATION =====

func (b *strategyBase) validateCriteria(criteria Criteria) error {
	if criteria.CourseID == 0 {
		return fmt.Errorf("%w: course id is required", ErrInvalidCriteria)
	}
	if criteria.TotalQuestions <= 0 {
		return fmt.Errorf("%w: total questions must be positive, got %d", ErrInvalidCriteria, criteria.TotalQuestions)
	}
	if !criteria.Difficulty.IsValid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidCriteria, criteria.Difficulty)
	}
	for topic, weight := range criteria.TopicWeightage {
		if weight < 0 {
			return fmt.Errorf("%w: negative weight %.2f for topic %q", ErrInvalidCriteria, weight, topic)
		}
	}
	for questionType := range criteria.TypeDistribution {
		if !questionType.IsValid() {
			return fmt.Errorf("%w: unknown question type %q", ErrInvalidCriteria, questionType)
		}
	}
	return nil
}

// ===== CANDIDATE LOADING =====

// loadCandidates fetches the active pool for the course. When the exclusion
// filter leaves fewer candidates than requested, the query is retried without
// it so repeat attempts can reuse earlier questions rather than fail.
func (b *strategyBase) loadCandidates(ctx context.Context, criteria Criteria) ([]*models.Question, error) {
	pool, err := b.source.GetSelectionPool(ctx, criteria.CourseID, criteria.ExcludeQuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query selection pool: %w", err)
	}

	if len(pool) < criteria.TotalQuestions && len(criteria.ExcludeQuestionIDs) > 0 {
		b.logger.Debug("selection pool short after exclusions, relaxing filter",
			"course_id", criteria.CourseID,
			"pool_size", len(pool),
			"requested", criteria.TotalQuestions)
		pool, err = b.source.GetSelectionPool(ctx, criteria.CourseID, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query relaxed selection pool: %w", err)
		}
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: course %d has no active questions", ErrNoQuestionsAvailable, criteria.CourseID)
	}
	return pool, nil
}

// ===== DISTRIBUTION PIPELINE =====

// distribute runs the topic/difficulty distribution over the candidate pool
// and returns the chosen questions in selection order. rank decides how
// candidates within a tier are preferred.
func (b *strategyBase) distribute(candidates []*models.Question, criteria Criteria, rank rankFunc) []*models.Question {
	if len(criteria.TopicWeightage) == 0 {
		tiers := difficultyTiers(candidates, criteria.Difficulty)
		return pickFromTiers(tiers, criteria.TotalQuestions, rank, map[uint]bool{})
	}

	used := make(map[uint]bool)
	selected := make([]*models.Question, 0, criteria.TotalQuestions)

	for _, target := range topicTargets(criteria.TopicWeightage, criteria.TotalQuestions) {
		remaining := criteria.TotalQuestions - len(selected)
		if remaining <= 0 {
			break
		}
		want := target.count
		if want > remaining {
			want = remaining
		}

		topicPool := filterByTopic(candidates, target.topic)
		tiers := difficultyTiers(topicPool, criteria.Difficulty)
		picked := pickFromTiers(tiers, want, rank, used)
		selected = append(selected, picked...)
	}

	// Topics that came up short leave open slots; fill them from whatever is
	// left, preferring the primary difficulty.
	if len(selected) < criteria.TotalQuestions {
		leftover := excludeUsed(candidates, used)
		exact, rest := splitByDifficulty(leftover, criteria.Difficulty)
		fillTiers := [][]*models.Question{exact, rest}
		filled := pickFromTiers(fillTiers, criteria.TotalQuestions-len(selected), rank, used)
		selected = append(selected, filled...)
	}

	return selected
}

type topicTarget struct {
	topic  string
	weight float64
	count  int
}

// topicTargets converts the weightage map into per-topic slot counts,
// proportional to weight and rounded to the nearest whole slot. Order is
// heaviest topic first so rounding shortfalls land on the lightest topics.
func topicTargets(weightage map[string]float64, totalQuestions int) []topicTarget {
	var weightSum float64
	for _, weight := range weightage {
		weightSum += weight
	}
	if weightSum <= 0 {
		return nil
	}

	targets := make([]topicTarget, 0, len(weightage))
	for topic, weight := range weightage {
		targets = append(targets, topicTarget{
			topic:  topic,
			weight: weight,
			count:  int(math.Round(weight / weightSum * float64(totalQuestions))),
		})
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].weight != targets[j].weight {
			return targets[i].weight > targets[j].weight
		}
		return targets[i].topic < targets[j].topic
	})
	return targets
}

// difficultyTiers orders the pool into preference tiers around the target
// difficulty: exact match first, then the adjacent level(s), then everything
// else. A short primary tier degrades to neighbours instead of failing.
func difficultyTiers(pool []*models.Question, target models.DifficultyLevel) [][]*models.Question {
	targetIdx := target.Index()
	tiers := make([][]*models.Question, 3)
	for _, question := range pool {
		distance := question.Difficulty.Index() - targetIdx
		if distance < 0 {
			distance = -distance
		}
		if distance > 2 {
			distance = 2
		}
		tiers[distance] = append(tiers[distance], question)
	}
	return tiers
}

// pickFromTiers takes up to n questions walking the tiers in order, ranking
// each tier and skipping ids already used.
func pickFromTiers(tiers [][]*models.Question, n int, rank rankFunc, used map[uint]bool) []*models.Question {
	picked := make([]*models.Question, 0, n)
	for _, tier := range tiers {
		if len(picked) >= n {
			break
		}
		for _, question := range rank(tier) {
			if len(picked) >= n {
				break
			}
			if used[question.ID] {
				continue
			}
			used[question.ID] = true
			picked = append(picked, question)
		}
	}
	return picked
}

func filterByTopic(pool []*models.Question, topic string) []*models.Question {
	var filtered []*models.Question
	for _, question := range pool {
		if question.Topic == topic {
			filtered = append(filtered, question)
		}
	}
	return filtered
}

func splitByDifficulty(pool []*models.Question, target models.DifficultyLevel) (exact, rest []*models.Question) {
	for _, question := range pool {
		if question.Difficulty == target {
			exact = append(exact, question)
		} else {
			rest = append(rest, question)
		}
	}
	return exact, rest
}

func excludeUsed(pool []*models.Question, used map[uint]bool) []*models.Question {
	var remaining []*models.Question
	for _, question := range pool {
		if !used[question.ID] {
			remaining = append(remaining, question)
		}
	}
	return remaining
}

// ===== ORDERING & SNAPSHOTS =====

// finalize applies the type-distribution preference, shuffles and freezes the
// chosen questions into SelectedQuestion records.
func (b *strategyBase) finalize(chosen []*models.Question, criteria Criteria) []models.SelectedQuestion {
	if len(criteria.TypeDistribution) > 0 {
		// Soft preference only: heavier types float to the front, nothing is
		// dropped to meet a quota.
		sort.SliceStable(chosen, func(i, j int) bool {
			return criteria.TypeDistribution[chosen[i].Type] > criteria.TypeDistribution[chosen[j].Type]
		})
	}

	selected := make([]models.SelectedQuestion, len(chosen))
	for i, question := range chosen {
		selected[i] = models.SelectedQuestion{
			QuestionID:    question.ID,
			OriginalOrder: i + 1,
			Snapshot:      b.buildSnapshot(question, criteria.ShuffleOptions),
		}
	}

	if criteria.ShuffleQuestions {
		fisherYates(b.rng, selected)
	}
	for i := range selected {
		selected[i].DisplayOrder = i + 1
	}
	return selected
}

// buildSnapshot copies the gradable fields of a question into an immutable
// snapshot owned by the session. Edits to the live question after this point
// never reach the session.
func (b *strategyBase) buildSnapshot(question *models.Question, shuffleOptions bool) models.QuestionSnapshot {
	snapshot := models.QuestionSnapshot{
		Text:          question.Text,
		Type:          question.Type,
		Topic:         question.Topic,
		Difficulty:    question.Difficulty,
		Marks:         question.Marks,
		NegativeMarks: question.NegativeMarks,
	}
	if question.CaseStudy != nil {
		caseStudy := *question.CaseStudy
		snapshot.CaseStudy = &caseStudy
	}
	if question.NumericalAnswer != nil {
		numerical := *question.NumericalAnswer
		snapshot.NumericalAnswer = &numerical
	}
	if len(question.Options) > 0 {
		options := make([]models.SnapshotOption, len(question.Options))
		for i, option := range question.Options {
			options[i] = models.SnapshotOption{
				ID:        option.ID,
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			}
		}
		if shuffleOptions {
			fisherYates(b.rng, options)
		}
		for i := range options {
			options[i].DisplayOrder = i + 1
		}
		snapshot.Options = options
	}
	return snapshot
}

// shuffledCopy returns a random permutation of the input, leaving it intact.
func (b *strategyBase) shuffledCopy(pool []*models.Question) []*models.Question {
	shuffled := make([]*models.Question, len(pool))
	copy(shuffled, pool)
	fisherYates(b.rng, shuffled)
	return shuffled
}

func fisherYates[T any](rng *rand.Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
