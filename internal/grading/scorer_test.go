package grading

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// ===== MOCK ATTEMPT RECORDER =====

type MockAttemptRecorder struct {
	mock.Mock
}

func (m *MockAttemptRecorder) RecordAttemptResult(ctx context.Context, questionID uint, correct bool) error {
	args := m.Called(ctx, questionID, correct)
	return args.Error(0)
}

// ===== TEST HELPERS =====

func newTestScorer(recorder AttemptRecorder) *Scorer {
	return NewScorer(NewAnswerValidator(), recorder, slog.Default())
}

func selectedMCQ(questionID uint, marks, negativeMarks float64) models.SelectedQuestion {
	return models.SelectedQuestion{
		QuestionID: questionID,
		Snapshot: models.QuestionSnapshot{
			Type:          models.QuestionTypeMCQSingle,
			Topic:         "Algebra",
			Difficulty:    models.DifficultyMedium,
			Marks:         marks,
			NegativeMarks: negativeMarks,
			Options: []models.SnapshotOption{
				{ID: "right", Text: "Right", IsCorrect: true},
				{ID: "wrong", Text: "Wrong", IsCorrect: false},
			},
		},
	}
}

func selectedShortAnswer(questionID uint, marks float64) models.SelectedQuestion {
	return models.SelectedQuestion{
		QuestionID: questionID,
		Snapshot: models.QuestionSnapshot{
			Type:  models.QuestionTypeShortAnswer,
			Topic: "Algebra",
			Marks: marks,
		},
	}
}

func answer(questionID uint, value string) models.Answer {
	return models.Answer{QuestionID: questionID, Value: datatypes.JSON(value)}
}

// ===== AUTO SCORING =====

func TestCalculateAutoScore_MixedAutoAndPending(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	scorer := newTestScorer(recorder)

	session := &models.QuizSession{
		ID: 1,
		SelectedQuestions: []models.SelectedQuestion{
			selectedMCQ(1, 1, 0),
			selectedMCQ(2, 1, 0),
			selectedMCQ(3, 1, 0),
			selectedShortAnswer(4, 1),
			selectedShortAnswer(5, 1),
		},
		Answers: []models.Answer{
			answer(1, `"right"`),
			answer(2, `"right"`),
			answer(3, `"right"`),
			answer(4, `"free text one"`),
			answer(5, `"free text two"`),
		},
	}
	quiz := &models.Quiz{PassingPercentage: 40}

	err := scorer.CalculateAutoScore(context.Background(), session, quiz)
	require.NoError(t, err)

	assert.Equal(t, models.SessionEvaluating, session.Status)
	assert.Equal(t, float64(3), session.AutoScore)
	assert.True(t, session.PendingManualEvaluation)
	assert.Len(t, session.QuestionsForManualEvaluation, 2)
	assert.ElementsMatch(t, []uint{4, 5}, []uint(session.QuestionsForManualEvaluation))

	// Pending answers stay tri-state nil; graded answers do not.
	assert.Nil(t, session.FindAnswer(4).IsCorrect)
	require.NotNil(t, session.FindAnswer(1).IsCorrect)
	assert.True(t, *session.FindAnswer(1).IsCorrect)

	recorder.AssertNumberOfCalls(t, "RecordAttemptResult", 3)
}

func TestCalculateAutoScore_AllCorrectCompletes(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, true).Return(nil)
	scorer := newTestScorer(recorder)

	session := &models.QuizSession{
		ID: 2,
		SelectedQuestions: []models.SelectedQuestion{
			selectedMCQ(1, 2, 0),
			selectedMCQ(2, 2, 0),
		},
		Answers: []models.Answer{
			answer(1, `"right"`),
			answer(2, `"right"`),
		},
	}
	quiz := &models.Quiz{PassingPercentage: 40}

	err := scorer.CalculateAutoScore(context.Background(), session, quiz)
	require.NoError(t, err)

	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.False(t, session.PendingManualEvaluation)
	assert.Equal(t, float64(4), session.AutoScore)
	assert.Equal(t, float64(4), session.TotalScore)
	assert.Equal(t, float64(4), session.TotalMarks)
	assert.Equal(t, float64(100), session.Percentage)
	assert.True(t, session.Passed)
}

func TestCalculateAutoScore_NegativeMarkingClampsAtZero(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	scorer := newTestScorer(recorder)

	session := &models.QuizSession{
		ID: 3,
		SelectedQuestions: []models.SelectedQuestion{
			selectedMCQ(1, 1, 2),
			selectedMCQ(2, 1, 2),
			selectedMCQ(3, 1, 2),
		},
		Answers: []models.Answer{
			answer(1, `"right"`),
			answer(2, `"wrong"`),
			answer(3, `"wrong"`),
		},
	}
	quiz := &models.Quiz{NegativeMarking: true, PassingPercentage: 40}

	err := scorer.CalculateAutoScore(context.Background(), session, quiz)
	require.NoError(t, err)

	// 1 - 2 - 2 = -3, clamped to 0.
	assert.Equal(t, float64(0), session.AutoScore)
	assert.Equal(t, float64(0), session.TotalScore)
	assert.False(t, session.Passed)
	assert.Equal(t, float64(2), session.FindAnswer(2).NegativeMarksApplied)
}

func TestCalculateAutoScore_NegativeMarkingDisabled(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	scorer := newTestScorer(recorder)

	session := &models.QuizSession{
		ID: 4,
		SelectedQuestions: []models.SelectedQuestion{
			selectedMCQ(1, 1, 2),
			selectedMCQ(2, 1, 2),
		},
		Answers: []models.Answer{
			answer(1, `"right"`),
			answer(2, `"wrong"`),
		},
	}
	quiz := &models.Quiz{NegativeMarking: false, PassingPercentage: 40}

	err := scorer.CalculateAutoScore(context.Background(), session, quiz)
	require.NoError(t, err)

	assert.Equal(t, float64(1), session.AutoScore)
	assert.Equal(t, float64(0), session.FindAnswer(2).NegativeMarksApplied)
}

func TestCalculateAutoScore_UnattemptedAnswer(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	scorer := newTestScorer(recorder)

	session := &models.QuizSession{
		ID: 5,
		SelectedQuestions: []models.SelectedQuestion{
			selectedMCQ(1, 1, 1),
		},
		Answers: []models.Answer{
			answer(1, `null`),
		},
	}
	quiz := &models.Quiz{NegativeMarking: true, PassingPercentage: 40}

	err := scorer.CalculateAutoScore(context.Background(), session, quiz)
	require.NoError(t, err)

	// A blank answer risks nothing: no deduction and no counter update.
	assert.Equal(t, float64(0), session.AutoScore)
	assert.Equal(t, float64(0), session.FindAnswer(1).NegativeMarksApplied)
	recorder.AssertNotCalled(t, "RecordAttemptResult")
}

// ===== MANUAL EVALUATION =====

func evaluatingSession() *models.QuizSession {
	return &models.QuizSession{
		ID: 10,
		SelectedQuestions: []models.SelectedQuestion{
			selectedMCQ(1, 4, 0),
			selectedShortAnswer(2, 2),
			selectedShortAnswer(3, 4),
		},
		Answers: []models.Answer{
			{QuestionID: 1, Value: datatypes.JSON(`"right"`), MarksAwarded: 4, IsCorrect: boolPtr(true)},
			{QuestionID: 2, Value: datatypes.JSON(`"essay"`)},
			{QuestionID: 3, Value: datatypes.JSON(`"essay"`)},
		},
		AutoScore:                    4,
		TotalScore:                   4,
		TotalMarks:                   10,
		Status:                       models.SessionEvaluating,
		PendingManualEvaluation:      true,
		QuestionsForManualEvaluation: []uint{2, 3},
	}
}

func TestApplyManualEvaluation_CompletesSession(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	scorer := newTestScorer(recorder)

	session := evaluatingSession()
	quiz := &models.Quiz{PassingPercentage: 50}
	feedback := "good reasoning"

	err := scorer.ApplyManualEvaluation(context.Background(), session, quiz, []ManualMark{
		{QuestionID: 2, MarksAwarded: 2, Feedback: &feedback, EvaluatedBy: 99},
		{QuestionID: 3, MarksAwarded: 0, EvaluatedBy: 99},
	})
	require.NoError(t, err)

	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.False(t, session.PendingManualEvaluation)
	assert.Empty(t, session.QuestionsForManualEvaluation)
	assert.Equal(t, float64(2), session.ManualScore)
	assert.Equal(t, float64(6), session.TotalScore)
	assert.Equal(t, float64(60), session.Percentage)
	assert.True(t, session.Passed)

	graded := session.FindAnswer(2)
	require.NotNil(t, graded.IsCorrect)
	assert.True(t, *graded.IsCorrect)
	assert.Equal(t, &feedback, graded.ManualFeedback)
	require.NotNil(t, graded.EvaluatedAt)
	assert.WithinDuration(t, time.Now(), *graded.EvaluatedAt, time.Minute)
}

func TestApplyManualEvaluation_PartialBatchStaysEvaluating(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	scorer := newTestScorer(recorder)

	session := evaluatingSession()
	quiz := &models.Quiz{PassingPercentage: 50}

	err := scorer.ApplyManualEvaluation(context.Background(), session, quiz, []ManualMark{
		{QuestionID: 2, MarksAwarded: 1, EvaluatedBy: 99},
	})
	require.NoError(t, err)

	assert.Equal(t, models.SessionEvaluating, session.Status)
	assert.True(t, session.PendingManualEvaluation)
	assert.ElementsMatch(t, []uint{3}, []uint(session.QuestionsForManualEvaluation))
}

func TestApplyManualEvaluation_MarksOutOfRangeRejectsWithoutMutation(t *testing.T) {
	scorer := newTestScorer(nil)
	session := evaluatingSession()
	quiz := &models.Quiz{PassingPercentage: 50}

	tests := []struct {
		name  string
		marks []ManualMark
	}{
		{
			name:  "above configured marks",
			marks: []ManualMark{{QuestionID: 2, MarksAwarded: 3, EvaluatedBy: 99}},
		},
		{
			name:  "negative marks",
			marks: []ManualMark{{QuestionID: 2, MarksAwarded: -1, EvaluatedBy: 99}},
		},
		{
			name: "valid first entry does not mask an invalid second",
			marks: []ManualMark{
				{QuestionID: 2, MarksAwarded: 2, EvaluatedBy: 99},
				{QuestionID: 3, MarksAwarded: 100, EvaluatedBy: 99},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scorer.ApplyManualEvaluation(context.Background(), session, quiz, tt.marks)
			assert.ErrorIs(t, err, ErrMarksOutOfRange)

			assert.Equal(t, models.SessionEvaluating, session.Status)
			assert.Equal(t, float64(4), session.TotalScore)
			assert.ElementsMatch(t, []uint{2, 3}, []uint(session.QuestionsForManualEvaluation))
			assert.Nil(t, session.FindAnswer(2).EvaluatedAt)
		})
	}
}

func TestApplyManualEvaluation_UnknownQuestion(t *testing.T) {
	scorer := newTestScorer(nil)
	session := evaluatingSession()

	err := scorer.ApplyManualEvaluation(context.Background(), session, &models.Quiz{}, []ManualMark{
		{QuestionID: 77, MarksAwarded: 1, EvaluatedBy: 99},
	})
	assert.ErrorIs(t, err, ErrQuestionNotInSession)
}

func TestApplyManualEvaluation_OverrideOnCompletedSession(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	scorer := newTestScorer(recorder)

	// A previously finalized session where question 2 was awarded 2 marks.
	session := evaluatingSession()
	quiz := &models.Quiz{PassingPercentage: 65}
	require.NoError(t, scorer.ApplyManualEvaluation(context.Background(), session, quiz, []ManualMark{
		{QuestionID: 2, MarksAwarded: 2, EvaluatedBy: 99},
		{QuestionID: 3, MarksAwarded: 2, EvaluatedBy: 99},
	}))
	require.Equal(t, float64(8), session.TotalScore)
	require.True(t, session.Passed)

	// The evaluator revises question 2 down to zero.
	err := scorer.ApplyManualEvaluation(context.Background(), session, quiz, []ManualMark{
		{QuestionID: 2, MarksAwarded: 0, EvaluatedBy: 99},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(6), session.TotalScore)
	assert.Equal(t, float64(60), session.Percentage)
	assert.False(t, session.Passed)
	assert.Equal(t, models.SessionCompleted, session.Status)
}

func TestApplyManualEvaluation_OverrideOfAutoGradedAnswer(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	scorer := newTestScorer(recorder)

	session := &models.QuizSession{
		ID: 11,
		SelectedQuestions: []models.SelectedQuestion{
			selectedMCQ(1, 2, 0),
		},
		Answers: []models.Answer{
			answer(1, `"right"`),
		},
	}
	quiz := &models.Quiz{PassingPercentage: 40}
	require.NoError(t, scorer.CalculateAutoScore(context.Background(), session, quiz))
	require.Equal(t, float64(2), session.AutoScore)
	require.Equal(t, models.SessionCompleted, session.Status)

	// An evaluator confirming the auto-graded marks must not count them in
	// both the auto and manual buckets.
	err := scorer.ApplyManualEvaluation(context.Background(), session, quiz, []ManualMark{
		{QuestionID: 1, MarksAwarded: 2, EvaluatedBy: 99},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(0), session.AutoScore)
	assert.Equal(t, float64(2), session.ManualScore)
	assert.Equal(t, float64(2), session.TotalScore)
	assert.LessOrEqual(t, session.TotalScore, session.TotalMarks)
	assert.Equal(t, float64(100), session.Percentage)
}

func TestApplyManualEvaluation_OverrideClearsDeduction(t *testing.T) {
	recorder := new(MockAttemptRecorder)
	recorder.On("RecordAttemptResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	scorer := newTestScorer(recorder)

	session := &models.QuizSession{
		ID: 12,
		SelectedQuestions: []models.SelectedQuestion{
			selectedMCQ(1, 2, 1),
			selectedMCQ(2, 2, 1),
		},
		Answers: []models.Answer{
			answer(1, `"right"`),
			answer(2, `"wrong"`),
		},
	}
	quiz := &models.Quiz{NegativeMarking: true, PassingPercentage: 40}
	require.NoError(t, scorer.CalculateAutoScore(context.Background(), session, quiz))
	require.Equal(t, float64(1), session.AutoScore)

	// The evaluator awards partial credit for question 2. Its earlier
	// deduction no longer applies.
	err := scorer.ApplyManualEvaluation(context.Background(), session, quiz, []ManualMark{
		{QuestionID: 2, MarksAwarded: 1, EvaluatedBy: 99},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(0), session.FindAnswer(2).NegativeMarksApplied)
	assert.Equal(t, float64(2), session.AutoScore)
	assert.Equal(t, float64(1), session.ManualScore)
	assert.Equal(t, float64(3), session.TotalScore)
}
