package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p ProgressPostgreSQL) Create(ctx context.Context, record *models.ProgressRecord) error {
	return p.db.WithContext(ctx).Create(record).Error
}

func (p ProgressPostgreSQL) List(ctx context.Context, filters repositories.ProgressFilters) ([]*models.ProgressRecord, int64, error) {
	var records []*models.ProgressRecord
	var total int64

	// apply filter first
	query := p.db.WithContext(ctx).Model(&models.ProgressRecord{})
	query = p.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "ASC"
	if strings.EqualFold(filters.SortOrder, "desc") {
		order = "DESC"
	}
	query = applyPagination(query.Order("created_at "+order+", id "+order), filters.Limit, filters.Offset)

	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (p ProgressPostgreSQL) ListSince(ctx context.Context, since time.Time) ([]*models.ProgressRecord, error) {
	var records []*models.ProgressRecord
	if err := p.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (p ProgressPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ProgressFilters) *gorm.DB {
	if filters.LearnerID != "" {
		query = query.Where("learner_id = ?", filters.LearnerID)
	}
	if filters.TopicID != nil {
		query = query.Where("topic_id = ?", *filters.TopicID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at < ?", *filters.DateTo)
	}
	return query
}
