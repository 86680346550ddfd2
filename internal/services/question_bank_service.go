package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edu-platform/quiz-service/internal/cache"
	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/edu-platform/quiz-service/internal/repositories"
	"github.com/edu-platform/quiz-service/internal/validator"
	"gorm.io/datatypes"
)

type questionBankService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	cacheTTL  time.Duration
	validator *validator.Validator
	logger    *ServiceLogger
}

// NewQuestionBankService builds the question bank. cache may be nil; ttl <= 0 disables caching.
func NewQuestionBankService(repo repositories.Repository, cacheService cache.CacheService, ttl time.Duration, validator *validator.Validator, logger *slog.Logger) QuestionBankService {
	return &questionBankService{
		repo:      repo,
		cache:     cacheService,
		cacheTTL:  ttl,
		validator: validator,
		logger:    NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "question_bank"}),
	}
}

func topicCacheKey(topicID uint) string     { return fmt.Sprintf("questions:topic:%d", topicID) }
func sectionCacheKey(sectionID uint) string { return fmt.Sprintf("questions:section:%d", sectionID) }

func (s *questionBankService) QuestionsByTopic(ctx context.Context, topicID uint) (questions []quiz.Question, err error) {
	op := s.logger.WithOperation(ctx, "questions_by_topic", "")
	defer func() { op.LogResult(topicID, "topic", err) }()

	if topicID == 0 {
		return nil, ErrInvalidTopicID
	}

	return s.cached(ctx, topicCacheKey(topicID), func() ([]quiz.Question, error) {
		rows, err := s.repo.Question().GetByTopic(ctx, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions for topic %d: %w", topicID, err)
		}
		if len(rows) == 0 {
			if _, err := s.repo.Topic().GetByID(ctx, topicID); err != nil {
				if repositories.IsNotFoundError(err) {
					return nil, ErrTopicNotFound
				}
				return nil, fmt.Errorf("failed to get topic: %w", err)
			}
		}
		return s.toQuizQuestions(ctx, rows), nil
	})
}

func (s *questionBankService) QuestionsBySection(ctx context.Context, sectionID uint) (questions []quiz.Question, err error) {
	op := s.logger.WithOperation(ctx, "questions_by_section", "")
	defer func() { op.LogResult(sectionID, "section", err) }()

	if sectionID == 0 {
		return nil, ErrInvalidSectionID
	}

	return s.cached(ctx, sectionCacheKey(sectionID), func() ([]quiz.Question, error) {
		rows, err := s.repo.Question().GetBySection(ctx, sectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions for section %d: %w", sectionID, err)
		}
		if len(rows) == 0 {
			if _, err := s.repo.Topic().GetSection(ctx, sectionID); err != nil {
				if repositories.IsNotFoundError(err) {
					return nil, ErrSectionNotFound
				}
				return nil, fmt.Errorf("failed to get section: %w", err)
			}
		}
		return s.toQuizQuestions(ctx, rows), nil
	})
}

func (s *questionBankService) ListTopics(ctx context.Context) ([]*models.Topic, error) {
	topics, err := s.repo.Topic().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

// Import stores a topic with its sections and questions in one transaction, then drops cached
// lists for it. Questions are validated before anything is written.
func (s *questionBankService) Import(ctx context.Context, req *ImportRequest) (result *ImportResult, err error) {
	op := s.logger.WithOperation(ctx, "import_questions", "")
	defer func() {
		var id uint
		if result != nil {
			id = result.TopicID
		}
		op.LogResult(id, "topic", err)
	}()

	if err := s.validator.Validate(req.Topic); err != nil {
		return nil, err
	}
	for _, section := range req.Sections {
		if err := s.validator.Validate(section); err != nil {
			return nil, err
		}
	}

	// rows[0] holds loose questions, rows[i+1] those of req.Sections[i]
	rows := make([][]*models.Question, len(req.Sections)+1)
	var all []*models.Question
	order := 0
	draft := func(group int, questions []ImportQuestion) error {
		for _, iq := range questions {
			order++
			row, err := toQuestionRow(order, iq)
			if err != nil {
				return err
			}
			rows[group] = append(rows[group], row)
			all = append(all, row)
		}
		return nil
	}
	if err := draft(0, req.Loose); err != nil {
		return nil, err
	}
	for i, is := range req.Sections {
		if err := draft(i+1, is.Questions); err != nil {
			return nil, err
		}
	}
	if len(all) > 0 {
		if err := s.validator.Question().ValidateBatch(all); err != nil {
			return nil, NewValidationError("questions", err.Error(), nil)
		}
	}

	imported := &ImportResult{Questions: len(all)}
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		topic := &models.Topic{Name: req.Topic.Name, Description: req.Topic.Description, OrderIndex: req.Topic.OrderIndex}
		if err := tx.Topic().Create(ctx, topic); err != nil {
			return fmt.Errorf("failed to create topic: %w", err)
		}
		imported.TopicID = topic.ID
		for _, row := range rows[0] {
			row.TopicID = topic.ID
		}

		for i, is := range req.Sections {
			section := &models.Section{TopicID: topic.ID, Name: is.Name, OrderIndex: is.OrderIndex}
			if err := tx.Topic().CreateSection(ctx, section); err != nil {
				return fmt.Errorf("failed to create section: %w", err)
			}
			imported.Sections = append(imported.Sections, section.ID)
			for _, row := range rows[i+1] {
				row.TopicID = topic.ID
				row.SectionID = &section.ID
			}
		}

		if len(all) > 0 {
			if err := tx.Question().CreateBatch(ctx, all); err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result = imported

	op.LogAudit(AuditEventImport, result.TopicID, "topic", map[string]interface{}{
		"sections":  len(result.Sections),
		"questions": result.Questions,
	})
	s.invalidate(ctx, result.TopicID, result.Sections)
	return result, nil
}

// cached serves key from the cache, falling back to load. Cache failures only degrade.
func (s *questionBankService) cached(ctx context.Context, key string, load func() ([]quiz.Question, error)) ([]quiz.Question, error) {
	if s.cache != nil && s.cacheTTL > 0 {
		var questions []quiz.Question
		err := s.cache.Get(ctx, key, &questions)
		if err == nil {
			return questions, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Logger().WarnContext(ctx, "Question cache unavailable", "key", key, "error", err)
		}
	}

	questions, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, questions, s.cacheTTL); err != nil {
			s.logger.Logger().WarnContext(ctx, "Failed to cache questions", "key", key, "error", err)
		}
	}
	return questions, nil
}

func (s *questionBankService) invalidate(ctx context.Context, topicID uint, sectionIDs []uint) {
	if s.cache == nil {
		return
	}
	keys := []string{topicCacheKey(topicID)}
	for _, id := range sectionIDs {
		keys = append(keys, sectionCacheKey(id))
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Logger().WarnContext(ctx, "Failed to invalidate cached questions", "key", key, "error", err)
		}
	}
}

// toQuizQuestions decodes stored rows. Unparsable options or images become empty lists.
func (s *questionBankService) toQuizQuestions(ctx context.Context, rows []*models.Question) []quiz.Question {
	questions := make([]quiz.Question, 0, len(rows))
	for _, row := range rows {
		q := quiz.Question{
			ID:               row.ID,
			TopicID:          row.TopicID,
			SectionID:        row.SectionID,
			Type:             row.Type,
			Content:          row.Content,
			CorrectAnswer:    row.CorrectAnswer,
			Explanation:      row.Explanation,
			ExplanationImage: row.ExplanationImage,
		}

		var err error
		if q.Options, err = quiz.DecodeOptions(row.Options); err != nil {
			q.Degraded = true
			s.logger.Logger().WarnContext(ctx, "Malformed question options", "question_id", row.ID, "error", err)
		}
		if q.Images, err = quiz.DecodeImages(row.Images); err != nil {
			q.Degraded = true
			s.logger.Logger().WarnContext(ctx, "Malformed question images", "question_id", row.ID, "error", err)
		}
		questions = append(questions, q)
	}
	return questions
}

func toQuestionRow(order int, iq ImportQuestion) (*models.Question, error) {
	row := &models.Question{
		Type:             iq.Type,
		Content:          iq.Content,
		CorrectAnswer:    iq.CorrectAnswer,
		Explanation:      iq.Explanation,
		ExplanationImage: iq.ExplanationImage,
		OrderIndex:       order,
	}
	if len(iq.Options) > 0 {
		data, err := json.Marshal(iq.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		row.Options = datatypes.JSON(data)
	}
	if len(iq.Images) > 0 {
		data, err := json.Marshal(iq.Images)
		if err != nil {
			return nil, fmt.Errorf("failed to encode images: %w", err)
		}
		row.Images = datatypes.JSON(data)
	}
	return row, nil
}
