package postgres

import (
	"context"

	"github.com/edu-platform/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db       *gorm.DB
	question repositories.QuestionRepository
	topic    repositories.TopicRepository
	progress repositories.ProgressRepository
	summary  repositories.SummaryRepository
}

// NewRepository wires every gorm repository onto db
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:       db,
		question: NewQuestionPostgreSQL(db),
		topic:    NewTopicPostgreSQL(db),
		progress: NewProgressPostgreSQL(db),
		summary:  NewSummaryPostgreSQL(db),
	}
}

func (r *repository) Question() repositories.QuestionRepository { return r.question }
func (r *repository) Topic() repositories.TopicRepository       { return r.topic }
func (r *repository) Progress() repositories.ProgressRepository { return r.progress }
func (r *repository) Summary() repositories.SummaryRepository   { return r.summary }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// applyPagination caps unbounded list reads
func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}
