package services

import (
	"log/slog"
	"time"

	"github.com/edu-platform/quiz-service/internal/cache"
	"github.com/edu-platform/quiz-service/internal/events"
	"github.com/edu-platform/quiz-service/internal/repositories"
	"github.com/edu-platform/quiz-service/internal/validator"
)

// ManagerConfig carries the tunables the services read at construction
type ManagerConfig struct {
	QuestionCacheTTL time.Duration
	MaxTimeSpent     int
}

type serviceManager struct {
	questionBank QuestionBankService
	progress     ProgressService
}

func NewServiceManager(repo repositories.Repository, cacheService cache.CacheService, publisher events.EventPublisher, validator *validator.Validator, logger *slog.Logger, cfg ManagerConfig) ServiceManager {
	return &serviceManager{
		questionBank: NewQuestionBankService(repo, cacheService, cfg.QuestionCacheTTL, validator, logger),
		progress:     NewProgressService(repo, publisher, validator, logger, cfg.MaxTimeSpent),
	}
}

func (m *serviceManager) QuestionBank() QuestionBankService { return m.questionBank }
func (m *serviceManager) Progress() ProgressService         { return m.progress }
