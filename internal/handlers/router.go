package handlers

import (
	"github.com/edu-platform/quiz-service/internal/services"
	"github.com/edu-platform/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	questionHandler *QuestionHandler
	progressHandler *ProgressHandler
	verifier        TokenVerifier
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	verifier TokenVerifier,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		questionHandler: NewQuestionHandler(serviceManager.QuestionBank(), logger),
		progressHandler: NewProgressHandler(serviceManager.Progress(), logger),
		verifier:        verifier,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.verifier))
	{
		v1.GET("/topics", hm.questionHandler.ListTopics)

		questions := v1.Group("/questions")
		{
			questions.GET("/topic/:id", hm.questionHandler.GetQuestionsByTopic)
			questions.GET("/section/:id", hm.questionHandler.GetQuestionsBySection)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
		}

		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("/progress", hm.progressHandler.RecordProgress)
			quizzes.GET("/quiz-progress", hm.progressHandler.GetProgress)
			quizzes.GET("/quiz-progress/export", hm.progressHandler.ExportProgress)
			quizzes.GET("/practice-summary", hm.progressHandler.GetPracticeSummary)
		}
	}
}
