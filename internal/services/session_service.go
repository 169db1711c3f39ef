package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EduCore-2025/quiz-engine-service/internal/cache"
	"github.com/EduCore-2025/quiz-engine-service/internal/events"
	"github.com/EduCore-2025/quiz-engine-service/internal/grading"
	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"github.com/EduCore-2025/quiz-engine-service/internal/selection"
	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// performanceCacheTTL bounds how stale a cached topic-accuracy profile can
// get before the next adaptive selection recomputes it.
const performanceCacheTTL = 15 * time.Minute

// historyWindow is how many prior completed sessions feed exclusions, the
// adaptive profile and the trend comparison.
const historyWindow = 5

type StartSessionRequest struct {
	QuizID    uint `json:"quiz_id" validate:"required"`
	StudentID uint `json:"student_id" validate:"required"`
}

type SaveAnswerRequest struct {
	QuestionID        uint           `json:"question_id" validate:"required"`
	Value             datatypes.JSON `json:"value"`
	TimeSpentSeconds  int            `json:"time_spent_seconds" validate:"min=0"`
	IsMarkedForReview bool           `json:"is_marked_for_review"`
}

type ManualEvaluationRequest struct {
	Marks []grading.ManualMark `json:"marks" validate:"required,min=1,dive"`
}

type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest) (*models.QuizSession, error)
	Get(ctx context.Context, sessionID, studentID uint) (*models.QuizSession, error)
	SaveAnswer(ctx context.Context, sessionID, studentID uint, req *SaveAnswerRequest) error
	Submit(ctx context.Context, sessionID, studentID uint) (*models.QuizSession, error)
	ApplyManualEvaluation(ctx context.Context, sessionID, evaluatorID uint, req *ManualEvaluationRequest) (*models.QuizSession, error)
	ListPendingEvaluation(ctx context.Context, quizID uint, limit int) ([]*models.QuizSession, error)
	History(ctx context.Context, quizID, studentID uint, limit int) ([]*models.QuizSession, error)
}

type sessionService struct {
	repo        repositories.Repository
	strategies  *selection.Registry
	scorer      *grading.Scorer
	evaluations EvaluationService
	publisher   events.EventPublisher
	cache       cache.CacheService
	logger      *slog.Logger
	validator   *validator.Validate
}

func NewSessionService(
	repo repositories.Repository,
	strategies *selection.Registry,
	scorer *grading.Scorer,
	evaluations EvaluationService,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validate *validator.Validate,
) SessionService {
	return &sessionService{
		repo:        repo,
		strategies:  strategies,
		scorer:      scorer,
		evaluations: evaluations,
		publisher:   publisher,
		cache:       cacheService,
		logger:      logger,
		validator:   validate,
	}
}

// ===== SESSION LIFECYCLE =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest) (*models.QuizSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	s.logger.Info("Starting quiz session",
		"quiz_id", req.QuizID,
		"student_id", req.StudentID)

	quiz, err := s.repo.Quiz().GetByID(ctx, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.Status != models.QuizStatusPublished {
		return nil, ErrQuizNotPublished
	}

	// An in-progress attempt is resumed, never duplicated.
	if active, err := s.repo.Session().GetActiveSession(ctx, req.QuizID, req.StudentID); err == nil {
		if expired, herr := s.handleExpiry(ctx, active, quiz); herr != nil {
			return nil, herr
		} else if !expired {
			s.logger.Info("Resuming active session", "session_id", active.ID)
			return active, nil
		}
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}

	attempts, err := s.repo.Session().GetAttemptCount(ctx, req.QuizID, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if quiz.MaxAttempts > 0 && attempts >= quiz.MaxAttempts {
		return nil, ErrAttemptLimitExceeded
	}

	history, err := s.repo.Session().GetRecentCompleted(ctx, req.QuizID, req.StudentID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	selected, strategyKind, err := s.selectQuestions(ctx, quiz, req.StudentID, history)
	if err != nil {
		return nil, err
	}

	session := &models.QuizSession{
		QuizID:            req.QuizID,
		StudentID:         req.StudentID,
		AttemptNumber:     attempts + 1,
		SelectedQuestions: selected,
		Status:            models.SessionInProgress,
		StartedAt:         time.Now(),
	}
	if err := s.repo.Session().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	questionIDs := make([]uint, len(selected))
	for i, sq := range selected {
		questionIDs[i] = sq.QuestionID
	}
	if err := s.repo.Question().IncrementUsage(ctx, questionIDs); err != nil {
		// Usage counters feed variety scoring only; the session is already
		// live, so log and move on.
		s.logger.Warn("failed to increment question usage", "error", err)
	}

	s.publish(ctx, events.NewQuizEvent(events.EventSessionStarted, events.SessionStartedEvent{
		SessionID:     session.ID,
		QuizID:        session.QuizID,
		StudentID:     session.StudentID,
		AttemptNumber: session.AttemptNumber,
		QuestionCount: len(selected),
		Strategy:      string(strategyKind),
		StartedAt:     session.StartedAt,
	}))

	s.logger.Info("Quiz session started",
		"session_id", session.ID,
		"attempt_number", session.AttemptNumber,
		"questions", len(selected),
		"strategy", strategyKind)
	return session, nil
}

// selectQuestions builds the criteria from the quiz configuration and runs
// the configured strategy. Questions seen in recent attempts are excluded up
// front; the strategy relaxes that on its own when the pool runs short.
func (s *sessionService) selectQuestions(ctx context.Context, quiz *models.Quiz, studentID uint, history []*models.QuizSession) ([]models.SelectedQuestion, selection.StrategyKind, error) {
	strategyKind := selection.StrategyKind(quiz.SelectionStrategy)
	if quiz.SelectionStrategy == "" {
		strategyKind = selection.StrategyDefault
	}
	strategy, err := s.strategies.Get(strategyKind)
	if err != nil {
		return nil, strategyKind, err
	}

	var exclude []uint
	seen := make(map[uint]bool)
	for _, prior := range history {
		for _, sq := range prior.SelectedQuestions {
			if !seen[sq.QuestionID] {
				seen[sq.QuestionID] = true
				exclude = append(exclude, sq.QuestionID)
			}
		}
	}

	criteria := selection.Criteria{
		CourseID:           quiz.CourseID,
		Difficulty:         quiz.Difficulty,
		TotalQuestions:     quiz.QuestionConfig.TotalQuestions,
		TopicWeightage:     quiz.QuestionConfig.TopicWeightage,
		TypeDistribution:   quiz.QuestionConfig.TypeDistribution,
		ExcludeQuestionIDs: exclude,
		ShuffleQuestions:   quiz.Settings.ShuffleQuestions,
		ShuffleOptions:     quiz.Settings.ShuffleOptions,
	}
	if strategyKind == selection.StrategyAdaptive {
		criteria.Performance = s.studentPerformance(ctx, quiz.ID, studentID, history)
	}

	selected, err := strategy.Select(ctx, criteria)
	if err != nil {
		return nil, strategyKind, err
	}
	return selected, strategyKind, nil
}

// studentPerformance returns the student's per-topic accuracy profile,
// computed from recent completed sessions and cached between attempts.
func (s *sessionService) studentPerformance(ctx context.Context, quizID, studentID uint, history []*models.QuizSession) *selection.StudentPerformance {
	key := cache.PerformanceKey(quizID, studentID)

	var cached selection.StudentPerformance
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached
		}
	}

	type topicCount struct{ correct, total int }
	counts := make(map[string]*topicCount)
	for _, prior := range history {
		for i := range prior.Answers {
			answer := &prior.Answers[i]
			selected := prior.FindSelectedQuestion(answer.QuestionID)
			if selected == nil || answer.IsCorrect == nil {
				continue
			}
			count := counts[selected.Snapshot.Topic]
			if count == nil {
				count = &topicCount{}
				counts[selected.Snapshot.Topic] = count
			}
			count.total++
			if *answer.IsCorrect {
				count.correct++
			}
		}
	}

	performance := &selection.StudentPerformance{
		StudentID:     studentID,
		TopicAccuracy: make(map[string]float64, len(counts)),
	}
	for topic, count := range counts {
		performance.TopicAccuracy[topic] = float64(count.correct) / float64(count.total) * 100
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, performance, performanceCacheTTL); err != nil {
			s.logger.Warn("failed to cache student performance", "error", err)
		}
	}
	return performance
}

func (s *sessionService) Get(ctx context.Context, sessionID, studentID uint) (*models.QuizSession, error) {
	session, err := s.getOwnedSession(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}

	if session.Status == models.SessionInProgress {
		quiz, err := s.repo.Quiz().GetByID(ctx, session.QuizID)
		if err != nil {
			return nil, fmt.Errorf("failed to get quiz: %w", err)
		}
		if _, err := s.handleExpiry(ctx, session, quiz); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *sessionService) SaveAnswer(ctx context.Context, sessionID, studentID uint, req *SaveAnswerRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	session, err := s.getOwnedSession(ctx, sessionID, studentID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionInProgress {
		return ErrSessionNotActive
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, session.QuizID)
	if err != nil {
		return fmt.Errorf("failed to get quiz: %w", err)
	}
	if expired, err := s.handleExpiry(ctx, session, quiz); err != nil {
		return err
	} else if expired {
		return ErrSessionExpired
	}

	if session.FindSelectedQuestion(req.QuestionID) == nil {
		return fmt.Errorf("%w: question %d", ErrQuestionNotInSession, req.QuestionID)
	}

	if answer := session.FindAnswer(req.QuestionID); answer != nil {
		answer.Value = req.Value
		answer.TimeSpentSeconds = req.TimeSpentSeconds
		answer.IsMarkedForReview = req.IsMarkedForReview
	} else {
		session.Answers = append(session.Answers, models.Answer{
			QuestionID:        req.QuestionID,
			Value:             req.Value,
			TimeSpentSeconds:  req.TimeSpentSeconds,
			IsMarkedForReview: req.IsMarkedForReview,
		})
	}

	if err := s.repo.Session().Update(ctx, session); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

func (s *sessionService) Submit(ctx context.Context, sessionID, studentID uint) (*models.QuizSession, error) {
	session, err := s.getOwnedSession(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionNotSubmittable
	}
	return s.finishSession(ctx, session, false)
}

// finishSession grades a session and drives it to its settled status. Used
// by both student submission and expiry auto-submission.
func (s *sessionService) finishSession(ctx context.Context, session *models.QuizSession, autoSubmitted bool) (*models.QuizSession, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, session.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	now := time.Now()
	session.SubmittedAt = &now
	if autoSubmitted {
		session.Status = models.SessionAutoSubmitted
	} else {
		session.Status = models.SessionSubmitted
	}

	if err := s.scorer.CalculateAutoScore(ctx, session, quiz); err != nil {
		return nil, fmt.Errorf("failed to score session: %w", err)
	}
	if session.Status == models.SessionCompleted {
		completedAt := now
		session.CompletedAt = &completedAt
	}

	if err := s.repo.Session().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	s.publish(ctx, events.NewQuizEvent(events.EventSessionSubmitted, events.SessionSubmittedEvent{
		SessionID:        session.ID,
		QuizID:           session.QuizID,
		StudentID:        session.StudentID,
		SubmittedAt:      now,
		AutoSubmitted:    autoSubmitted,
		Status:           session.Status,
		AutoScore:        session.AutoScore,
		PendingQuestions: len(session.QuestionsForManualEvaluation),
	}))

	if session.Status == models.SessionCompleted {
		s.onSessionCompleted(ctx, session)
	} else {
		s.publish(ctx, events.NewQuizEvent(events.EventSessionEvaluating, events.SessionSubmittedEvent{
			SessionID:        session.ID,
			QuizID:           session.QuizID,
			StudentID:        session.StudentID,
			SubmittedAt:      now,
			AutoSubmitted:    autoSubmitted,
			Status:           session.Status,
			AutoScore:        session.AutoScore,
			PendingQuestions: len(session.QuestionsForManualEvaluation),
		}))
	}

	s.logger.Info("Session submitted",
		"session_id", session.ID,
		"status", session.Status,
		"auto_score", session.AutoScore,
		"auto_submitted", autoSubmitted)
	return session, nil
}

// ===== MANUAL EVALUATION =====

func (s *sessionService) ApplyManualEvaluation(ctx context.Context, sessionID, evaluatorID uint, req *ManualEvaluationRequest) (*models.QuizSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	// Manual marks apply to sessions awaiting evaluation, and to completed
	// sessions when an evaluator revises an earlier grade.
	if session.Status != models.SessionEvaluating && session.Status != models.SessionCompleted {
		return nil, ErrSessionNotSubmittable
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, session.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	marks := make([]grading.ManualMark, len(req.Marks))
	copy(marks, req.Marks)
	for i := range marks {
		marks[i].EvaluatedBy = evaluatorID
	}

	wasCompleted := session.Status == models.SessionCompleted
	if err := s.scorer.ApplyManualEvaluation(ctx, session, quiz, marks); err != nil {
		return nil, err
	}
	if session.Status == models.SessionCompleted && session.CompletedAt == nil {
		now := time.Now()
		session.CompletedAt = &now
	}

	if err := s.repo.Session().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	s.publish(ctx, events.NewQuizEvent(events.EventManualEvaluationCompleted, events.ManualEvaluationCompletedEvent{
		SessionID:        session.ID,
		QuizID:           session.QuizID,
		StudentID:        session.StudentID,
		EvaluatorID:      evaluatorID,
		QuestionsGraded:  len(marks),
		RemainingPending: len(session.QuestionsForManualEvaluation),
		EvaluatedAt:      time.Now(),
	}))

	if session.Status == models.SessionCompleted && !wasCompleted {
		s.onSessionCompleted(ctx, session)
	} else if wasCompleted {
		// A revision on a completed session invalidates the stored report.
		s.evaluations.Regenerate(ctx, session)
	}

	s.logger.Info("Manual evaluation applied",
		"session_id", session.ID,
		"evaluator_id", evaluatorID,
		"status", session.Status)
	return session, nil
}

func (s *sessionService) ListPendingEvaluation(ctx context.Context, quizID uint, limit int) ([]*models.QuizSession, error) {
	sessions, err := s.repo.Session().ListPendingEvaluation(ctx, quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sessions: %w", err)
	}
	return sessions, nil
}

func (s *sessionService) History(ctx context.Context, quizID, studentID uint, limit int) ([]*models.QuizSession, error) {
	if limit <= 0 {
		limit = historyWindow
	}
	sessions, err := s.repo.Session().GetRecentCompleted(ctx, quizID, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return sessions, nil
}

// ===== HELPERS =====

func (s *sessionService) getOwnedSession(ctx context.Context, sessionID, studentID uint) (*models.QuizSession, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.StudentID != studentID {
		return nil, ErrSessionAccessDenied
	}
	return session, nil
}

// handleExpiry auto-submits an in-progress session whose clock has run out.
// A session with no attempted answer is marked expired instead of graded.
// Returns true when the session is no longer in progress.
func (s *sessionService) handleExpiry(ctx context.Context, session *models.QuizSession, quiz *models.Quiz) (bool, error) {
	if session.Status != models.SessionInProgress {
		return true, nil
	}
	deadline := session.StartedAt.Add(time.Duration(quiz.DurationMinutes) * time.Minute)
	if time.Now().Before(deadline) {
		return false, nil
	}

	attempted := false
	for i := range session.Answers {
		if session.Answers[i].IsAttempted() {
			attempted = true
			break
		}
	}

	if !attempted {
		session.Status = models.SessionExpired
		now := time.Now()
		session.SubmittedAt = &now
		if err := s.repo.Session().Update(ctx, session); err != nil {
			return true, fmt.Errorf("failed to expire session: %w", err)
		}
		s.publish(ctx, events.NewQuizEvent(events.EventSessionExpired, events.SessionSubmittedEvent{
			SessionID:     session.ID,
			QuizID:        session.QuizID,
			StudentID:     session.StudentID,
			SubmittedAt:   now,
			AutoSubmitted: true,
			Status:        session.Status,
		}))
		s.logger.Info("Session expired without answers", "session_id", session.ID)
		return true, nil
	}

	if _, err := s.finishSession(ctx, session, true); err != nil {
		return true, err
	}
	return true, nil
}

// onSessionCompleted fires the completion event and generates the analytics
// report. Report generation is best-effort: a failure is logged, never
// surfaced to the student.
func (s *sessionService) onSessionCompleted(ctx context.Context, session *models.QuizSession) {
	s.publish(ctx, events.NewQuizEvent(events.EventSessionCompleted, events.SessionCompletedEvent{
		SessionID:   session.ID,
		QuizID:      session.QuizID,
		StudentID:   session.StudentID,
		CompletedAt: time.Now(),
		TotalScore:  session.TotalScore,
		TotalMarks:  session.TotalMarks,
		Percentage:  session.Percentage,
		Passed:      session.Passed,
	}))

	if s.cache != nil {
		// The next adaptive selection must see this attempt.
		if err := s.cache.Delete(ctx, cache.PerformanceKey(session.QuizID, session.StudentID)); err != nil {
			s.logger.Warn("failed to invalidate performance cache", "error", err)
		}
	}

	if _, err := s.evaluations.GenerateForSession(ctx, session.ID); err != nil {
		s.logger.Error("failed to generate evaluation", "session_id", session.ID, "error", err)
	}
}

func (s *sessionService) publish(ctx context.Context, event *events.QuizEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.Type, "error", err)
	}
}
