package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
)

var (
	// ErrMarksOutOfRange is returned by manual evaluation when supplied marks
	// are negative or exceed the question's configured marks. The session is
	// left untouched.
	ErrMarksOutOfRange = errors.New("marks out of range")

	// ErrQuestionNotInSession is returned when a manual mark targets a
	// question id the session never selected.
	ErrQuestionNotInSession = errors.New("question not part of session")
)

// AttemptRecorder persists the lifetime correctness counters of questions.
// Increments are atomic on the repository side, so concurrent sessions can
// record results without coordination.
type AttemptRecorder interface {
	RecordAttemptResult(ctx context.Context, questionID uint, correct bool) error
}

// ManualMark is one human-supplied grade for a pending answer.
type ManualMark struct {
	QuestionID   uint    `json:"question_id" validate:"required"`
	MarksAwarded float64 `json:"marks_awarded" validate:"min=0"`
	Feedback     *string `json:"feedback,omitempty"`
	EvaluatedBy  uint    `json:"evaluated_by" validate:"required"`
}

// Scorer grades a submitted session against its frozen snapshots and folds
// in manual evaluation results as they arrive.
type Scorer struct {
	validator *AnswerValidator
	recorder  AttemptRecorder
	logger    *slog.Logger
}

func NewScorer(validator *AnswerValidator, recorder AttemptRecorder, logger *slog.Logger) *Scorer {
	return &Scorer{
		validator: validator,
		recorder:  recorder,
		logger:    logger,
	}
}

// CalculateAutoScore grades every recorded answer in place and settles the
// session status: completed when everything auto-graded, evaluating when any
// answer awaits a human. All grading reads the selection-time snapshots, so
// the result is reproducible regardless of later question edits.
func (s *Scorer) CalculateAutoScore(ctx context.Context, session *models.QuizSession, quiz *models.Quiz) error {
	var autoScore, totalMarks float64
	var pending []uint

	for i := range session.SelectedQuestions {
		totalMarks += session.SelectedQuestions[i].Snapshot.Marks
	}

	for i := range session.Answers {
		answer := &session.Answers[i]
		selected := session.FindSelectedQuestion(answer.QuestionID)
		if selected == nil {
			s.logger.Warn("answer references unknown question, skipping",
				"session_id", session.ID,
				"question_id", answer.QuestionID)
			continue
		}
		snapshot := &selected.Snapshot

		if !answer.IsAttempted() {
			// Nothing was risked, so no negative marking and no effect on the
			// question's lifetime counters.
			incorrect := false
			answer.IsCorrect = &incorrect
			answer.MarksAwarded = 0
			continue
		}

		result := s.validator.Validate(snapshot, answer.Value)
		answer.IsCorrect = result

		switch {
		case result == nil:
			pending = append(pending, answer.QuestionID)

		case *result:
			answer.MarksAwarded = snapshot.Marks
			autoScore += snapshot.Marks
			s.recordAttempt(ctx, answer.QuestionID, true)

		default:
			answer.MarksAwarded = 0
			if quiz.NegativeMarking && snapshot.NegativeMarks > 0 {
				answer.NegativeMarksApplied = snapshot.NegativeMarks
				autoScore -= snapshot.NegativeMarks
			}
			s.recordAttempt(ctx, answer.QuestionID, false)
		}
	}

	// Deductions never drive the score below zero.
	if autoScore < 0 {
		autoScore = 0
	}

	session.AutoScore = autoScore
	session.TotalMarks = totalMarks
	session.QuestionsForManualEvaluation = pending
	session.PendingManualEvaluation = len(pending) > 0

	if session.PendingManualEvaluation {
		session.Status = models.SessionEvaluating
		// Provisional until every pending question is manually graded.
		session.TotalScore = autoScore
	} else {
		session.Status = models.SessionCompleted
		s.settleTotals(session, quiz)
	}

	s.logger.Info("session auto-scored",
		"session_id", session.ID,
		"auto_score", autoScore,
		"total_marks", totalMarks,
		"pending_count", len(pending),
		"status", session.Status)
	return nil
}

// ApplyManualEvaluation folds human-supplied marks into the session. Every
// mark is validated before anything is mutated, so an out-of-range mark
// rejects the whole batch. Once no pending questions remain the session
// totals are finalized and the status moves to completed.
func (s *Scorer) ApplyManualEvaluation(ctx context.Context, session *models.QuizSession, quiz *models.Quiz, marks []ManualMark) error {
	for _, mark := range marks {
		selected := session.FindSelectedQuestion(mark.QuestionID)
		if selected == nil {
			return fmt.Errorf("%w: question %d", ErrQuestionNotInSession, mark.QuestionID)
		}
		if session.FindAnswer(mark.QuestionID) == nil {
			return fmt.Errorf("%w: question %d has no recorded answer", ErrQuestionNotInSession, mark.QuestionID)
		}
		if mark.MarksAwarded < 0 || mark.MarksAwarded > selected.Snapshot.Marks {
			return fmt.Errorf("%w: question %d awarded %.2f of %.2f",
				ErrMarksOutOfRange, mark.QuestionID, mark.MarksAwarded, selected.Snapshot.Marks)
		}
	}

	now := time.Now()
	for _, mark := range marks {
		answer := session.FindAnswer(mark.QuestionID)
		correct := mark.MarksAwarded > 0
		answer.IsCorrect = &correct
		answer.MarksAwarded = mark.MarksAwarded
		answer.NegativeMarksApplied = 0
		answer.ManualFeedback = mark.Feedback
		evaluatedBy := mark.EvaluatedBy
		answer.EvaluatedBy = &evaluatedBy
		evaluatedAt := now
		answer.EvaluatedAt = &evaluatedAt

		session.QuestionsForManualEvaluation = removeID(session.QuestionsForManualEvaluation, mark.QuestionID)
		s.recordAttempt(ctx, mark.QuestionID, correct)
	}

	session.PendingManualEvaluation = len(session.QuestionsForManualEvaluation) > 0
	s.settleTotals(session, quiz)
	if !session.PendingManualEvaluation {
		session.Status = models.SessionCompleted
	}

	s.logger.Info("manual evaluation applied",
		"session_id", session.ID,
		"marks_applied", len(marks),
		"remaining_pending", len(session.QuestionsForManualEvaluation))
	return nil
}

// settleTotals recomputes the auto, manual and total scores, percentage and
// pass flag from the per-answer state. An answer overridden by an evaluator
// counts toward the manual score only, so a revision of an auto-graded answer
// never leaves its marks in both buckets.
func (s *Scorer) settleTotals(session *models.QuizSession, quiz *models.Quiz) {
	var autoScore, manualScore float64
	for i := range session.Answers {
		answer := &session.Answers[i]
		if answer.EvaluatedBy != nil {
			manualScore += answer.MarksAwarded
			continue
		}
		autoScore += answer.MarksAwarded - answer.NegativeMarksApplied
	}
	if autoScore < 0 {
		autoScore = 0
	}

	total := autoScore + manualScore
	if total < 0 {
		total = 0
	}

	session.AutoScore = autoScore
	session.ManualScore = manualScore
	session.TotalScore = total
	if session.TotalMarks > 0 {
		session.Percentage = total / session.TotalMarks * 100
	}
	session.Passed = session.Percentage >= quiz.PassingPercentage
}

// recordAttempt updates the shared question counters. Failures are logged and
// swallowed; the counters feed approximate analytics, not grading.
func (s *Scorer) recordAttempt(ctx context.Context, questionID uint, correct bool) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordAttemptResult(ctx, questionID, correct); err != nil {
		s.logger.Warn("failed to record attempt result",
			"question_id", questionID,
			"error", err)
	}
}

func removeID(ids []uint, id uint) []uint {
	filtered := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}
