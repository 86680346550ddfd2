package models

import (
	"time"

	"github.com/edu-platform/quiz-service/internal/quiz"
	"gorm.io/datatypes"
)

// Topic groups sections and questions a learner practices together
type Topic struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:200"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"order_index" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Sections []Section `json:"sections,omitempty" gorm:"foreignKey:TopicID"`
}

type Section struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TopicID    uint      `json:"topic_id" gorm:"not null;index"`
	Name       string    `json:"name" gorm:"not null;size:200"`
	OrderIndex int       `json:"order_index" gorm:"default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Question is the stored form of a quiz question. Options and Images are kept as raw
// JSON because authoring tools have written both arrays and JSON-encoded strings.
type Question struct {
	ID               uint              `json:"id" gorm:"primaryKey"`
	TopicID          uint              `json:"topic_id" gorm:"not null;index:idx_questions_topic_order"`
	SectionID        *uint             `json:"section_id" gorm:"index"`
	Type             quiz.QuestionType `json:"type" gorm:"not null;size:20" validate:"required,question_type"`
	Content          string            `json:"content" gorm:"type:text"`
	Options          datatypes.JSON    `json:"options"`
	CorrectAnswer    string            `json:"correct_answer" gorm:"type:text"`
	Explanation      string            `json:"explanation" gorm:"type:text"`
	Images           datatypes.JSON    `json:"images"`
	ExplanationImage string            `json:"explanation_image"`
	OrderIndex       int               `json:"order_index" gorm:"default:0;index:idx_questions_topic_order"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
