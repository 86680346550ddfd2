package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/services"
	"github.com/edu-platform/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProgressHandler struct {
	BaseHandler
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: NewBaseHandler(logger),
		progress:    progress,
	}
}

// RecordProgress stores the outcome of one answered question for the calling learner
// @Router /quizzes/progress [post]
func (h *ProgressHandler) RecordProgress(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}

	var req services.RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Recording progress", "topic_id", req.TopicID, "question_id", req.QuestionID)

	record, err := h.progress.Record(c.Request.Context(), learner, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetProgress pages through the calling learner's records, newest first
// @Router /quizzes/quiz-progress [get]
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}

	query, err := parseProgressQuery(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	page, err := h.progress.History(c.Request.Context(), learner, query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ExportProgress downloads the calling learner's records as a spreadsheet
// @Router /quizzes/quiz-progress/export [get]
func (h *ProgressHandler) ExportProgress(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}

	query, err := parseProgressQuery(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	h.LogRequest(c, "Exporting progress")

	data, err := h.progress.Export(c.Request.Context(), learner, query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-progress-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetPracticeSummary returns daily or weekly practice buckets for the calling learner
// @Router /quizzes/practice-summary [get]
func (h *ProgressHandler) GetPracticeSummary(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}

	query := &services.SummaryQuery{
		Period:  models.SummaryPeriod(c.DefaultQuery("period", string(models.PeriodDaily))),
		Refresh: c.Query("refresh") == "true",
	}
	var err error
	if query.TopicID, err = parseUintQueryPtr(c, "topic_id"); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	if query.From, err = parseTimeQuery(c, "from"); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	if query.To, err = parseTimeQuery(c, "to"); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	summary, err := h.progress.Summary(c.Request.Context(), learner, query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func parseProgressQuery(c *gin.Context) (*services.ProgressQuery, error) {
	query := &services.ProgressQuery{}
	var err error
	if query.TopicID, err = parseUintQueryPtr(c, "topic_id"); err != nil {
		return nil, err
	}
	if query.From, err = parseTimeQuery(c, "from"); err != nil {
		return nil, err
	}
	if query.To, err = parseTimeQuery(c, "to"); err != nil {
		return nil, err
	}
	if query.Limit, err = parseIntQuery(c, "limit", 0); err != nil {
		return nil, err
	}
	if query.Offset, err = parseIntQuery(c, "offset", 0); err != nil {
		return nil, err
	}
	return query, nil
}
