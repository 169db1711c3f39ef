package evaluation

import (
	"log/slog"
	"testing"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newTestGenerator() *Generator {
	return NewGenerator(slog.Default())
}

func selected(questionID uint, topic string, difficulty models.DifficultyLevel, questionType models.QuestionType, marks float64) models.SelectedQuestion {
	return models.SelectedQuestion{
		QuestionID: questionID,
		Snapshot: models.QuestionSnapshot{
			Topic:      topic,
			Difficulty: difficulty,
			Type:       questionType,
			Marks:      marks,
		},
	}
}

func graded(questionID uint, correct bool, marks float64, seconds int) models.Answer {
	return models.Answer{
		QuestionID:       questionID,
		Value:            datatypes.JSON(`"submitted"`),
		IsCorrect:        &correct,
		MarksAwarded:     marks,
		TimeSpentSeconds: seconds,
	}
}

// completedSession has two Algebra questions (1 right, 1 wrong), two Geometry
// questions (both right) and one unattempted Fractions question.
func completedSession() *models.QuizSession {
	return &models.QuizSession{
		ID:        1,
		QuizID:    5,
		StudentID: 7,
		SelectedQuestions: []models.SelectedQuestion{
			selected(1, "Algebra", models.DifficultyMedium, models.QuestionTypeMCQSingle, 2),
			selected(2, "Algebra", models.DifficultyHard, models.QuestionTypeMCQMultiple, 2),
			selected(3, "Geometry", models.DifficultyMedium, models.QuestionTypeMCQSingle, 2),
			selected(4, "Geometry", models.DifficultyEasy, models.QuestionTypeTrueFalse, 2),
			selected(5, "Fractions", models.DifficultyMedium, models.QuestionTypeNumerical, 2),
		},
		Answers: []models.Answer{
			graded(1, true, 2, 120),
			graded(2, false, 0, 180),
			graded(3, true, 2, 90),
			graded(4, true, 2, 60),
			{QuestionID: 5, Value: datatypes.JSON(`null`)},
		},
		TotalScore: 6,
		TotalMarks: 10,
		Percentage: 60,
		Status:     models.SessionCompleted,
	}
}

func TestGenerate_TopicAggregates(t *testing.T) {
	generator := newTestGenerator()
	session := completedSession()
	quiz := &models.Quiz{DurationMinutes: 10, PassingPercentage: 40}

	result, err := generator.Generate(session, quiz, nil)
	require.NoError(t, err)

	require.Len(t, result.Topics, 3)

	var algebra, geometry, fractions *models.TopicAnalysis
	for i := range result.Topics {
		switch result.Topics[i].Topic {
		case "Algebra":
			algebra = &result.Topics[i]
		case "Geometry":
			geometry = &result.Topics[i]
		case "Fractions":
			fractions = &result.Topics[i]
		}
	}
	require.NotNil(t, algebra)
	require.NotNil(t, geometry)
	require.NotNil(t, fractions)

	assert.Equal(t, 2, algebra.TotalQuestions)
	assert.Equal(t, 1, algebra.CorrectAnswers)
	assert.Equal(t, 1, algebra.WrongAnswers)
	assert.Equal(t, float64(50), algebra.Accuracy)
	assert.Equal(t, float64(2), algebra.MarksObtained)
	assert.Equal(t, float64(4), algebra.TotalMarks)
	assert.Equal(t, 300, algebra.TimeSpentSeconds)
	assert.Equal(t, 1, algebra.ByDifficulty[models.DifficultyMedium].Correct)
	assert.Equal(t, 0, algebra.ByDifficulty[models.DifficultyHard].Correct)

	assert.Equal(t, float64(100), geometry.Accuracy)
	assert.False(t, geometry.IsWeakArea)

	assert.Equal(t, 1, fractions.Unattempted)
	assert.Equal(t, float64(0), fractions.Accuracy)
	assert.True(t, fractions.IsWeakArea)

	assert.Equal(t, 5, result.Overall.TotalQuestions)
	assert.Equal(t, 3, result.Overall.Correct)
	assert.Equal(t, 1, result.Overall.Wrong)
	assert.Equal(t, 1, result.Overall.Unattempted)
	assert.Equal(t, float64(60), result.Overall.Accuracy)
}

func TestGenerate_DifficultyAndTypeAggregates(t *testing.T) {
	generator := newTestGenerator()
	result, err := generator.Generate(completedSession(), &models.Quiz{DurationMinutes: 10}, nil)
	require.NoError(t, err)

	medium := result.ByDifficulty[models.DifficultyMedium]
	assert.Equal(t, 3, medium.Total)
	assert.Equal(t, 2, medium.Correct)
	assert.InDelta(t, 66.67, medium.Accuracy, 0.01)

	easy := result.ByDifficulty[models.DifficultyEasy]
	assert.Equal(t, float64(100), easy.Accuracy)

	single := result.ByQuestionType[models.QuestionTypeMCQSingle]
	assert.Equal(t, 2, single.Total)
	assert.Equal(t, 2, single.Correct)

	multiple := result.ByQuestionType[models.QuestionTypeMCQMultiple]
	assert.Equal(t, 1, multiple.Total)
	assert.Equal(t, 0, multiple.Correct)
}

func TestGenerate_WeakAreaNeedsTwoQuestions(t *testing.T) {
	generator := newTestGenerator()
	result, err := generator.Generate(completedSession(), &models.Quiz{DurationMinutes: 10}, nil)
	require.NoError(t, err)

	// Algebra is at exactly 50% so it is not weak; Fractions is at 0% but has
	// only one question, so it never reaches the weak-areas list.
	assert.Empty(t, []string(result.WeakAreas))
	assert.ElementsMatch(t, []string{"Geometry"}, []string(result.StrongAreas))
}

func TestGenerate_WeakAreaSuggestionPriorities(t *testing.T) {
	session := &models.QuizSession{
		ID: 2,
		SelectedQuestions: []models.SelectedQuestion{
			selected(1, "Fractions", models.DifficultyMedium, models.QuestionTypeMCQSingle, 1),
			selected(2, "Fractions", models.DifficultyMedium, models.QuestionTypeMCQSingle, 1),
			selected(3, "Algebra", models.DifficultyMedium, models.QuestionTypeMCQSingle, 1),
			selected(4, "Algebra", models.DifficultyMedium, models.QuestionTypeMCQSingle, 1),
			selected(5, "Algebra", models.DifficultyMedium, models.QuestionTypeMCQSingle, 1),
		},
		Answers: []models.Answer{
			graded(1, false, 0, 30),
			graded(2, false, 0, 30),
			graded(3, true, 1, 30),
			graded(4, false, 0, 30),
			graded(5, false, 0, 30),
		},
		TotalMarks: 5,
	}

	generator := newTestGenerator()
	result, err := generator.Generate(session, &models.Quiz{DurationMinutes: 60}, nil)
	require.NoError(t, err)

	priorities := make(map[string]models.SuggestionPriority)
	for _, suggestion := range result.Suggestions {
		if suggestion.Type == models.SuggestionTopicRevision {
			priorities[suggestion.Topic] = suggestion.Priority
		}
	}
	// Fractions at 0% is below the 30% cutoff; Algebra at 33% is not.
	assert.Equal(t, models.PriorityHigh, priorities["Fractions"])
	assert.Equal(t, models.PriorityMedium, priorities["Algebra"])
}

func TestRateTimeManagement(t *testing.T) {
	tests := []struct {
		name        string
		utilization float64
		accuracy    float64
		expected    models.TimeRating
	}{
		{"high utilization and accuracy", 90, 80, models.TimeRatingExcellent},
		{"solid utilization, decent accuracy", 70, 55, models.TimeRatingGood},
		{"barely used the clock", 20, 90, models.TimeRatingPoor},
		{"overran the clock", 110, 90, models.TimeRatingPoor},
		{"middling everything", 70, 40, models.TimeRatingAverage},
		{"excellent boundary at 80", 80, 70, models.TimeRatingExcellent},
		{"poor boundary just under 50", 49.9, 90, models.TimeRatingPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rateTimeManagement(tt.utilization, tt.accuracy))
		})
	}
}

func TestGenerate_AttemptComparison(t *testing.T) {
	generator := newTestGenerator()
	session := completedSession()
	quiz := &models.Quiz{DurationMinutes: 10}

	t.Run("first attempt", func(t *testing.T) {
		result, err := generator.Generate(session, quiz, nil)
		require.NoError(t, err)
		assert.Equal(t, models.TrendFirstAttempt, result.Comparison.Trend)
		assert.Equal(t, 0, result.Comparison.PreviousAttempts)
	})

	t.Run("improving", func(t *testing.T) {
		history := []*models.QuizSession{
			{TotalScore: 4},
			{TotalScore: 5},
		}
		result, err := generator.Generate(session, quiz, history)
		require.NoError(t, err)
		assert.Equal(t, models.TrendImproving, result.Comparison.Trend)
		assert.Equal(t, float64(2), result.Comparison.ScoreImprovement)
		assert.Equal(t, float64(5), result.Comparison.BestScore)
		assert.Equal(t, float64(4.5), result.Comparison.AverageScore)
	})

	t.Run("declining", func(t *testing.T) {
		history := []*models.QuizSession{{TotalScore: 9}}
		result, err := generator.Generate(session, quiz, history)
		require.NoError(t, err)
		assert.Equal(t, models.TrendDeclining, result.Comparison.Trend)
	})

	t.Run("stable", func(t *testing.T) {
		history := []*models.QuizSession{{TotalScore: 6}}
		result, err := generator.Generate(session, quiz, history)
		require.NoError(t, err)
		assert.Equal(t, models.TrendStable, result.Comparison.Trend)
	})
}

func TestGenerate_GradeMapping(t *testing.T) {
	tests := []struct {
		percentage float64
		grade      string
	}{
		{100, "A+"}, {95, "A+"}, {94.9, "A"}, {85, "A"},
		{80, "B+"}, {70, "B"}, {60, "C+"}, {50, "C"},
		{40, "D"}, {34.9, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.grade, models.GradeForPercentage(tt.percentage), "percentage %.1f", tt.percentage)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	generator := newTestGenerator()
	session := completedSession()
	quiz := &models.Quiz{DurationMinutes: 10, PassingPercentage: 40}
	history := []*models.QuizSession{{TotalScore: 4}}

	first, err := generator.Generate(session, quiz, history)
	require.NoError(t, err)
	second, err := generator.Generate(session, quiz, history)
	require.NoError(t, err)

	assert.Equal(t, first.Overall, second.Overall)
	assert.Equal(t, first.Topics, second.Topics)
	assert.Equal(t, first.ByDifficulty, second.ByDifficulty)
	assert.Equal(t, first.ByQuestionType, second.ByQuestionType)
	assert.Equal(t, first.Comparison, second.Comparison)
	assert.Equal(t, first.Grade, second.Grade)
}

func TestGenerate_StrayAnswerIsSkipped(t *testing.T) {
	generator := newTestGenerator()
	session := completedSession()
	session.Answers = append(session.Answers, graded(99, true, 5, 10))

	result, err := generator.Generate(session, &models.Quiz{DurationMinutes: 10}, nil)
	require.NoError(t, err)

	// The answer without a matching snapshot contributes nothing.
	assert.Equal(t, 5, result.Overall.TotalQuestions)
	assert.Equal(t, 3, result.Overall.Correct)
}
