package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/edu-platform/quiz-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type ProgressFilters struct {
	LearnerID string     `json:"learner_id"`
	TopicID   *uint      `json:"topic_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type SummaryFilters struct {
	LearnerID string     `json:"learner_id"`
	TopicID   *uint      `json:"topic_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
}

// ===== REPOSITORIES =====

// QuestionRepository reads and authors questions. List reads are ordered by order_index, id.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByTopic(ctx context.Context, topicID uint) ([]*models.Question, error)
	GetBySection(ctx context.Context, sectionID uint) ([]*models.Question, error)
}

type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) error
	CreateSection(ctx context.Context, section *models.Section) error
	GetByID(ctx context.Context, id uint) (*models.Topic, error)
	GetSection(ctx context.Context, id uint) (*models.Section, error)
	List(ctx context.Context) ([]*models.Topic, error)
}

// ProgressRepository is append-only
type ProgressRepository interface {
	Create(ctx context.Context, record *models.ProgressRecord) error
	List(ctx context.Context, filters ProgressFilters) ([]*models.ProgressRecord, int64, error)
	ListSince(ctx context.Context, since time.Time) ([]*models.ProgressRecord, error)
}

type SummaryRepository interface {
	Upsert(ctx context.Context, rows []*models.PracticeSummary) error
	List(ctx context.Context, filters SummaryFilters) ([]*models.PracticeSummary, error)
}

// Repository groups the repositories behind one connection
type Repository interface {
	Question() QuestionRepository
	Topic() TopicRepository
	Progress() ProgressRepository
	Summary() SummaryRepository

	// WithTransaction runs fn against repositories bound to one transaction. An error from fn
	// rolls every write back.
	WithTransaction(ctx context.Context, fn func(tx Repository) error) error
}

// IsNotFoundError reports whether err is a missing-row error from the store
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
