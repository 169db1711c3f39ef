package evaluation

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
)

const (
	weakAreaThreshold   = 50.0
	weakAreaMinSamples  = 2
	strongAreaThreshold = 80.0
)

// Generator turns a completed session into an EvaluationResult. It is a pure
// reporting pass: the same session and history always produce the same
// aggregates and the session itself is never mutated. Answers whose question
// snapshot is missing are skipped rather than failing the whole report.
type Generator struct {
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate builds the full analytics report for session. history is the
// student's prior completed sessions of the same quiz, most recent first,
// used only for the attempt comparison.
func (g *Generator) Generate(session *models.QuizSession, quiz *models.Quiz, history []*models.QuizSession) (*models.EvaluationResult, error) {
	if session == nil || quiz == nil {
		return nil, fmt.Errorf("session and quiz are required")
	}

	topics, overall, byDifficulty, byType := g.aggregate(session)
	timeAnalysis := g.analyzeTime(session, quiz, overall)

	weakAreas, strongAreas := classifyAreas(topics)

	result := &models.EvaluationResult{
		SessionID:      session.ID,
		QuizID:         session.QuizID,
		StudentID:      session.StudentID,
		Overall:        overall,
		Topics:         topics,
		ByDifficulty:   byDifficulty,
		ByQuestionType: byType,
		TimeAnalysis:   timeAnalysis,
		WeakAreas:      weakAreas,
		StrongAreas:    strongAreas,
		Suggestions:    g.buildSuggestions(topics, weakAreas, timeAnalysis, byDifficulty),
		Comparison:     g.compareAttempts(session, history),
		Grade:          models.GradeForPercentage(session.Percentage),
		GeneratedAt:    time.Now(),
	}

	g.logger.Info("evaluation generated",
		"session_id", session.ID,
		"grade", result.Grade,
		"weak_areas", len(weakAreas),
		"suggestions", len(result.Suggestions))
	return result, nil
}

// ===== AGGREGATION =====

func (g *Generator) aggregate(session *models.QuizSession) ([]models.TopicAnalysis, models.OverallAnalysis, map[models.DifficultyLevel]models.DifficultyStats, map[models.QuestionType]models.QuestionTypeStats) {
	topicIndex := make(map[string]*models.TopicAnalysis)
	byDifficulty := make(map[models.DifficultyLevel]models.DifficultyStats)
	byType := make(map[models.QuestionType]models.QuestionTypeStats)
	overall := models.OverallAnalysis{TotalMarks: session.TotalMarks}

	for i := range session.SelectedQuestions {
		selected := &session.SelectedQuestions[i]
		snapshot := &selected.Snapshot
		answer := session.FindAnswer(selected.QuestionID)

		topic := topicIndex[snapshot.Topic]
		if topic == nil {
			topic = &models.TopicAnalysis{
				Topic:        snapshot.Topic,
				ByDifficulty: make(map[models.DifficultyLevel]models.DifficultyStats),
			}
			topicIndex[snapshot.Topic] = topic
		}

		topic.TotalQuestions++
		topic.TotalMarks += snapshot.Marks
		overall.TotalQuestions++

		difficultyStats := byDifficulty[snapshot.Difficulty]
		difficultyStats.Total++
		topicDifficulty := topic.ByDifficulty[snapshot.Difficulty]
		topicDifficulty.Total++
		typeStats := byType[snapshot.Type]
		typeStats.Total++

		switch {
		case answer == nil || !answer.IsAttempted():
			topic.Unattempted++
			overall.Unattempted++

		case answer.IsCorrect == nil:
			overall.Attempted++
			overall.PendingManual++
			topic.TimeSpentSeconds += answer.TimeSpentSeconds

		case *answer.IsCorrect:
			overall.Attempted++
			overall.Correct++
			topic.CorrectAnswers++
			topic.MarksObtained += answer.MarksAwarded
			overall.MarksObtained += answer.MarksAwarded
			topic.TimeSpentSeconds += answer.TimeSpentSeconds
			difficultyStats.Correct++
			topicDifficulty.Correct++
			typeStats.Correct++

		default:
			overall.Attempted++
			overall.Wrong++
			topic.WrongAnswers++
			topic.TimeSpentSeconds += answer.TimeSpentSeconds
		}

		byDifficulty[snapshot.Difficulty] = difficultyStats
		topic.ByDifficulty[snapshot.Difficulty] = topicDifficulty
		byType[snapshot.Type] = typeStats
	}

	for level, stats := range byDifficulty {
		stats.Accuracy = accuracy(stats.Correct, stats.Total)
		byDifficulty[level] = stats
	}
	for questionType, stats := range byType {
		stats.Accuracy = accuracy(stats.Correct, stats.Total)
		byType[questionType] = stats
	}

	topics := make([]models.TopicAnalysis, 0, len(topicIndex))
	for _, topic := range topicIndex {
		topic.Accuracy = accuracy(topic.CorrectAnswers, topic.TotalQuestions)
		topic.IsWeakArea = topic.Accuracy < weakAreaThreshold
		for level, stats := range topic.ByDifficulty {
			stats.Accuracy = accuracy(stats.Correct, stats.Total)
			topic.ByDifficulty[level] = stats
		}
		topics = append(topics, *topic)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })

	overall.Percentage = session.Percentage
	overall.Accuracy = accuracy(overall.Correct, overall.TotalQuestions)
	return topics, overall, byDifficulty, byType
}

// ===== TIME ANALYSIS =====

func (g *Generator) analyzeTime(session *models.QuizSession, quiz *models.Quiz, overall models.OverallAnalysis) models.SessionTimeAnalysis {
	var totalSeconds int
	for i := range session.Answers {
		totalSeconds += session.Answers[i].TimeSpentSeconds
	}

	analysis := models.SessionTimeAnalysis{
		TotalTimeSpentSeconds: totalSeconds,
		QuizDurationSeconds:   quiz.DurationMinutes * 60,
	}
	if analysis.QuizDurationSeconds > 0 {
		analysis.TimeUtilization = float64(totalSeconds) / float64(analysis.QuizDurationSeconds) * 100
	}
	if overall.TotalQuestions > 0 {
		analysis.AverageSecondsPerQuestion = float64(totalSeconds) / float64(overall.TotalQuestions)
	}
	analysis.TimeManagementRating = rateTimeManagement(analysis.TimeUtilization, overall.Accuracy)
	return analysis
}

func rateTimeManagement(utilization, accuracy float64) models.TimeRating {
	switch {
	case utilization >= 80 && utilization <= 100 && accuracy >= 70:
		return models.TimeRatingExcellent
	case utilization >= 60 && utilization <= 100 && accuracy >= 50:
		return models.TimeRatingGood
	case utilization < 50 || utilization > 100:
		return models.TimeRatingPoor
	default:
		return models.TimeRatingAverage
	}
}

// ===== WEAK / STRONG AREAS =====

// classifyAreas flags weak and strong topics. A weak flag needs at least two
// questions in the topic, so one unlucky question cannot brand a whole topic.
func classifyAreas(topics []models.TopicAnalysis) (weak, strong []string) {
	for _, topic := range topics {
		if topic.Accuracy < weakAreaThreshold && topic.TotalQuestions >= weakAreaMinSamples {
			weak = append(weak, topic.Topic)
		}
		if topic.Accuracy >= strongAreaThreshold {
			strong = append(strong, topic.Topic)
		}
	}
	return weak, strong
}

// ===== SUGGESTIONS =====

func (g *Generator) buildSuggestions(topics []models.TopicAnalysis, weakAreas []string, timeAnalysis models.SessionTimeAnalysis, byDifficulty map[models.DifficultyLevel]models.DifficultyStats) []models.ImprovementSuggestion {
	var suggestions []models.ImprovementSuggestion

	accuracyByTopic := make(map[string]float64, len(topics))
	for _, topic := range topics {
		accuracyByTopic[topic.Topic] = topic.Accuracy
	}
	for _, topic := range weakAreas {
		priority := models.PriorityMedium
		if accuracyByTopic[topic] < 30 {
			priority = models.PriorityHigh
		}
		suggestions = append(suggestions, models.ImprovementSuggestion{
			Type:     models.SuggestionTopicRevision,
			Topic:    topic,
			Priority: priority,
			Message:  fmt.Sprintf("Revise %s: accuracy was %.0f%% in this attempt", topic, accuracyByTopic[topic]),
		})
	}

	if timeAnalysis.TimeManagementRating == models.TimeRatingPoor {
		suggestions = append(suggestions, models.ImprovementSuggestion{
			Type:     models.SuggestionTimeManagement,
			Priority: models.PriorityHigh,
			Message:  "Work on pacing: time usage was far from the quiz duration",
		})
	}

	easy, hasEasy := byDifficulty[models.DifficultyEasy]
	medium, hasMedium := byDifficulty[models.DifficultyMedium]
	hard, hasHard := byDifficulty[models.DifficultyHard]
	switch {
	case hasEasy && easy.Accuracy < 70:
		suggestions = append(suggestions, models.ImprovementSuggestion{
			Type:     models.SuggestionDifficultyAdjustment,
			Priority: models.PriorityHigh,
			Message:  "Strengthen fundamentals with easier quizzes before moving up",
		})
	case hasMedium && medium.Accuracy >= 80 && hasHard && hard.Accuracy < 50:
		suggestions = append(suggestions, models.ImprovementSuggestion{
			Type:     models.SuggestionDifficultyAdjustment,
			Priority: models.PriorityMedium,
			Message:  "Practice harder questions to close the gap at the top difficulty",
		})
	}

	return suggestions
}

// ===== ATTEMPT COMPARISON =====

func (g *Generator) compareAttempts(session *models.QuizSession, history []*models.QuizSession) models.AttemptComparison {
	if len(history) == 0 {
		return models.AttemptComparison{Trend: models.TrendFirstAttempt}
	}

	comparison := models.AttemptComparison{
		PreviousAttempts: len(history),
		LastScore:        history[0].TotalScore,
	}

	var sum float64
	for _, prior := range history {
		sum += prior.TotalScore
		if prior.TotalScore > comparison.BestScore {
			comparison.BestScore = prior.TotalScore
		}
	}
	comparison.AverageScore = sum / float64(len(history))
	comparison.ScoreImprovement = session.TotalScore - comparison.LastScore

	switch {
	case comparison.ScoreImprovement > 0:
		comparison.Trend = models.TrendImproving
	case comparison.ScoreImprovement < 0:
		comparison.Trend = models.TrendDeclining
	default:
		comparison.Trend = models.TrendStable
	}
	return comparison
}

func accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
