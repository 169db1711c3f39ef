package handlers

import (
	"net/http"

	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"github.com/EduCore-2025/quiz-engine-service/internal/services"
	"github.com/EduCore-2025/quiz-engine-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	quizHandler       *QuizHandler
	questionHandler   *QuestionHandler
	sessionHandler    *SessionHandler
	evaluationHandler *EvaluationHandler
	repo              repositories.Repository
}

func NewHandlerManager(
	quizService services.QuizService,
	questionService services.QuestionService,
	sessionService services.SessionService,
	evaluationService services.EvaluationService,
	repo repositories.Repository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:       NewQuizHandler(quizService, logger),
		questionHandler:   NewQuestionHandler(questionService, logger),
		sessionHandler:    NewSessionHandler(sessionService, logger),
		evaluationHandler: NewEvaluationHandler(evaluationService, logger),
		repo:              repo,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.POST("/:id/publish", hm.quizHandler.PublishQuiz)
		}

		questions := v1.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.GET("/:id/stats", hm.questionHandler.GetQuestionStats)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeactivateQuestion)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start", hm.sessionHandler.StartSession)
			sessions.GET("/pending-evaluation", hm.sessionHandler.ListPendingEvaluation)
			sessions.GET("/history", hm.sessionHandler.GetHistory)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/answers", hm.sessionHandler.SaveAnswer)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)
			sessions.POST("/:id/evaluate", hm.sessionHandler.ApplyManualEvaluation)
		}

		evaluations := v1.Group("/evaluations")
		{
			evaluations.GET("/sessions/:session_id", hm.evaluationHandler.GetSessionEvaluation)
			evaluations.POST("/sessions/:session_id/regenerate", hm.evaluationHandler.RegenerateEvaluation)
			evaluations.GET("/history", hm.evaluationHandler.GetStudentEvaluations)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if err := hm.repo.Ping(c.Request.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": "quiz-engine-service",
	})
}
