package handlers

import (
	"net/http"

	"github.com/EduCore-2025/quiz-engine-service/internal/models"
	"github.com/EduCore-2025/quiz-engine-service/internal/repositories"
	"github.com/EduCore-2025/quiz-engine-service/internal/services"
	"github.com/EduCore-2025/quiz-engine-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
	}
}

// CreateQuestion creates a new question
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body models.Question true "Question data"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.questionService.Create(c.Request.Context(), &question); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion retrieves a question by ID
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// UpdateQuestion updates an existing question
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Param question body models.Question true "Question update data"
// @Success 200 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	question.ID = id

	if err := h.questionService.Update(c.Request.Context(), &question); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeactivateQuestion removes a question from future selection pools
// @Summary Deactivate question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeactivateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deactivating question", "question_id", id)

	if err := h.questionService.Deactivate(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetQuestionStats returns the question's lifetime usage counters
// @Summary Get question stats
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} gin.H
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id}/stats [get]
func (h *QuestionHandler) GetQuestionStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question_id":      question.ID,
		"usage_count":      question.UsageCount,
		"correct_attempts": question.CorrectAttempts,
		"total_attempts":   question.TotalAttempts,
		"success_rate":     question.SuccessRate(),
	})
}

// ListQuestions lists questions with filtering and pagination
// @Summary List questions
// @Tags questions
// @Produce json
// @Param course_id query uint false "Course ID"
// @Param topic query string false "Topic"
// @Param type query string false "Question type"
// @Param difficulty query string false "Difficulty level"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} ListResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	filters := h.parseQuestionFilters(c)

	questions, total, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:  questions,
		Total: total,
	})
}

func (h *QuestionHandler) parseQuestionFilters(c *gin.Context) repositories.QuestionFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.QuestionFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if courseID := h.parseIntQuery(c, "course_id", 0); courseID > 0 {
		id := uint(courseID)
		filters.CourseID = &id
	}
	if topic := c.Query("topic"); topic != "" {
		filters.Topic = &topic
	}
	if questionType := c.Query("type"); questionType != "" {
		qType := models.QuestionType(questionType)
		filters.Type = &qType
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		diffLevel := models.DifficultyLevel(difficulty)
		filters.Difficulty = &diffLevel
	}
	if active := c.Query("is_active"); active != "" {
		isActive := active == "true"
		filters.IsActive = &isActive
	}
	return filters
}
