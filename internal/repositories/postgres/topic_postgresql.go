package postgres

import (
	"context"

	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type TopicPostgreSQL struct {
	db *gorm.DB
}

func NewTopicPostgreSQL(db *gorm.DB) repositories.TopicRepository {
	return &TopicPostgreSQL{db: db}
}

func (t TopicPostgreSQL) Create(ctx context.Context, topic *models.Topic) error {
	return t.db.WithContext(ctx).Create(topic).Error
}

func (t TopicPostgreSQL) CreateSection(ctx context.Context, section *models.Section) error {
	return t.db.WithContext(ctx).Create(section).Error
}

func (t TopicPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := t.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		First(&topic, id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (t TopicPostgreSQL) GetSection(ctx context.Context, id uint) (*models.Section, error) {
	var section models.Section
	if err := t.db.WithContext(ctx).First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (t TopicPostgreSQL) List(ctx context.Context) ([]*models.Topic, error) {
	var topics []*models.Topic
	if err := t.db.WithContext(ctx).
		Order("order_index ASC, id ASC").
		Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}
