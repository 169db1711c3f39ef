package handlers

import (
	"net/http"

	"github.com/EduCore-2025/quiz-engine-service/internal/services"
	"github.com/EduCore-2025/quiz-engine-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type EvaluationHandler struct {
	BaseHandler
	evaluationService services.EvaluationService
}

func NewEvaluationHandler(evaluationService services.EvaluationService, logger utils.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		BaseHandler:       NewBaseHandler(logger),
		evaluationService: evaluationService,
	}
}

// GetSessionEvaluation retrieves the analytics report for a completed session
// @Summary Get session evaluation
// @Tags evaluations
// @Produce json
// @Param session_id path uint true "Session ID"
// @Success 200 {object} models.EvaluationResult
// @Failure 404 {object} ErrorResponse
// @Router /evaluations/sessions/{session_id} [get]
func (h *EvaluationHandler) GetSessionEvaluation(c *gin.Context) {
	sessionID := h.parseIDParam(c, "session_id")
	if sessionID == 0 {
		return
	}

	result, err := h.evaluationService.GetBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegenerateEvaluation rebuilds the report for a completed session
// @Summary Regenerate session evaluation
// @Tags evaluations
// @Produce json
// @Param session_id path uint true "Session ID"
// @Success 200 {object} models.EvaluationResult
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /evaluations/sessions/{session_id}/regenerate [post]
func (h *EvaluationHandler) RegenerateEvaluation(c *gin.Context) {
	sessionID := h.parseIDParam(c, "session_id")
	if sessionID == 0 {
		return
	}

	h.LogRequest(c, "Regenerating evaluation", "session_id", sessionID)

	result, err := h.evaluationService.GenerateForSession(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStudentEvaluations lists a student's evaluation history for a quiz
// @Summary Student evaluation history
// @Tags evaluations
// @Produce json
// @Param quiz_id query uint true "Quiz ID"
// @Param limit query int false "Limit"
// @Success 200 {object} ListResponse
// @Router /evaluations/history [get]
func (h *EvaluationHandler) GetStudentEvaluations(c *gin.Context) {
	quizID := uint(h.parseIntQuery(c, "quiz_id", 0))
	if quizID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "quiz_id is required",
		})
		return
	}
	studentID := h.parseStudentID(c)
	if studentID == 0 {
		return
	}
	limit := h.parseIntQuery(c, "limit", 10)

	results, err := h.evaluationService.GetStudentHistory(c.Request.Context(), quizID, studentID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:  results,
		Total: int64(len(results)),
	})
}
