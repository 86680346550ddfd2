package handlers

import (
	"net/http"

	"github.com/edu-platform/quiz-service/internal/services"
	"github.com/edu-platform/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	BaseHandler
	questionBank services.QuestionBankService
}

func NewQuestionHandler(questionBank services.QuestionBankService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:  NewBaseHandler(logger),
		questionBank: questionBank,
	}
}

// GetQuestionsByTopic returns the ordered questions of a topic
// @Router /questions/topic/{id} [get]
func (h *QuestionHandler) GetQuestionsByTopic(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting questions by topic", "topic_id", id)

	questions, err := h.questionBank.QuestionsByTopic(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// GetQuestionsBySection returns the ordered questions of a section
// @Router /questions/section/{id} [get]
func (h *QuestionHandler) GetQuestionsBySection(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting questions by section", "section_id", id)

	questions, err := h.questionBank.QuestionsBySection(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// ListTopics returns every topic in display order
// @Router /topics [get]
func (h *QuestionHandler) ListTopics(c *gin.Context) {
	topics, err := h.questionBank.ListTopics(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, topics)
}

// ImportQuestions stores a topic with its sections and questions
// @Router /questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	h.LogRequest(c, "Importing questions")

	var req services.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	result, err := h.questionBank.Import(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
