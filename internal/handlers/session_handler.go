package handlers

import (
	"net/http"

	"github.com/EduCore-2025/quiz-engine-service/internal/services"
	"github.com/EduCore-2025/quiz-engine-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// StartSession starts a new quiz attempt, or resumes the active one
// @Summary Start session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.StartSessionRequest true "Start session data"
// @Success 201 {object} models.QuizSession
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.LogRequest(c, "Starting session")

	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession retrieves the student's session, handling expiry on read
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} models.QuizSession
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	studentID := h.parseStudentID(c)
	if studentID == 0 {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), id, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// SaveAnswer records or replaces an answer on an in-progress session
// @Summary Save answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param answer body services.SaveAnswerRequest true "Answer data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	studentID := h.parseStudentID(c)
	if studentID == 0 {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.sessionService.SaveAnswer(c.Request.Context(), id, studentID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer saved"})
}

// SubmitSession submits the session for grading
// @Summary Submit session
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} models.QuizSession
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	studentID := h.parseStudentID(c)
	if studentID == 0 {
		return
	}

	h.LogRequest(c, "Submitting session", "session_id", id)

	session, err := h.sessionService.Submit(c.Request.Context(), id, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ApplyManualEvaluation applies evaluator marks to pending answers
// @Summary Apply manual evaluation
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param request body services.ManualEvaluationRequest true "Manual marks"
// @Success 200 {object} models.QuizSession
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/evaluate [post]
func (h *SessionHandler) ApplyManualEvaluation(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	evaluatorID := h.parseEvaluatorID(c)
	if evaluatorID == 0 {
		return
	}

	var req services.ManualEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Applying manual evaluation",
		"session_id", id,
		"evaluator_id", evaluatorID,
		"marks", len(req.Marks))

	session, err := h.sessionService.ApplyManualEvaluation(c.Request.Context(), id, evaluatorID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ListPendingEvaluation lists sessions awaiting manual grading for a quiz
// @Summary List sessions pending evaluation
// @Tags sessions
// @Produce json
// @Param quiz_id query uint true "Quiz ID"
// @Param limit query int false "Limit"
// @Success 200 {object} ListResponse
// @Router /sessions/pending-evaluation [get]
func (h *SessionHandler) ListPendingEvaluation(c *gin.Context) {
	quizID := uint(h.parseIntQuery(c, "quiz_id", 0))
	if quizID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "quiz_id is required",
		})
		return
	}
	limit := h.parseIntQuery(c, "limit", 20)

	sessions, err := h.sessionService.ListPendingEvaluation(c.Request.Context(), quizID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:  sessions,
		Total: int64(len(sessions)),
	})
}

// GetHistory returns the student's recent completed sessions for a quiz
// @Summary Session history
// @Tags sessions
// @Produce json
// @Param quiz_id query uint true "Quiz ID"
// @Param limit query int false "Limit"
// @Success 200 {object} ListResponse
// @Router /sessions/history [get]
func (h *SessionHandler) GetHistory(c *gin.Context) {
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
	limit := h.parseIntQuery(c, "limit", 0)

	sessions, err := h.sessionService.History(c.Request.Context(), quizID, studentID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:  sessions,
		Total: int64(len(sessions)),
	})
}

// parseEvaluatorID resolves the acting evaluator from the X-Evaluator-ID
// header set by the gateway.
func (h *SessionHandler) parseEvaluatorID(c *gin.Context) uint {
	idStr := c.GetHeader("X-Evaluator-ID")
	if idStr == "" {
		idStr = c.Query("evaluator_id")
	}
	id := uint(0)
	if parsed := parseUint(idStr); parsed > 0 {
		id = parsed
	}
	if id == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Evaluator not identified",
		})
	}
	return id
}
