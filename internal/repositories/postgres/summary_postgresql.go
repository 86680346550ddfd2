package postgres

import (
	"context"

	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SummaryPostgreSQL struct {
	db *gorm.DB
}

func NewSummaryPostgreSQL(db *gorm.DB) repositories.SummaryRepository {
	return &SummaryPostgreSQL{db: db}
}

// Upsert replaces the counters of existing (learner, topic, day) buckets
func (s SummaryPostgreSQL) Upsert(ctx context.Context, rows []*models.PracticeSummary) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "learner_id"}, {Name: "topic_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"attempts", "correct", "timed_out", "total_score", "time_spent", "updated_at",
		}),
	}).Create(&rows).Error
}

func (s SummaryPostgreSQL) List(ctx context.Context, filters repositories.SummaryFilters) ([]*models.PracticeSummary, error) {
	var rows []*models.PracticeSummary

	query := s.db.WithContext(ctx).Model(&models.PracticeSummary{})
	if filters.LearnerID != "" {
		query = query.Where("learner_id = ?", filters.LearnerID)
	}
	if filters.TopicID != nil {
		query = query.Where("topic_id = ?", *filters.TopicID)
	}
	if filters.DateFrom != nil {
		query = query.Where("day >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("day < ?", *filters.DateTo)
	}

	if err := query.Order("day ASC, topic_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
