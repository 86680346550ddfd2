package services

import (
	"context"
	"time"

	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/quiz"
)

// QuestionBankService serves ordered question lists in their session-ready form
type QuestionBankService interface {
	QuestionsByTopic(ctx context.Context, topicID uint) ([]quiz.Question, error)
	QuestionsBySection(ctx context.Context, sectionID uint) ([]quiz.Question, error)
	ListTopics(ctx context.Context) ([]*models.Topic, error)
	Import(ctx context.Context, req *ImportRequest) (*ImportResult, error)
}

// ProgressService stores and reports on learner progress records
type ProgressService interface {
	Record(ctx context.Context, learnerID string, req *RecordProgressRequest) (*models.ProgressRecord, error)
	History(ctx context.Context, learnerID string, query *ProgressQuery) (*ProgressPage, error)
	Export(ctx context.Context, learnerID string, query *ProgressQuery) ([]byte, error)
	Summary(ctx context.Context, learnerID string, query *SummaryQuery) (*PracticeSummaryResponse, error)
	RefreshSummaries(ctx context.Context, since time.Time) (int, error)
}

// ServiceManager groups the services the handlers depend on
type ServiceManager interface {
	QuestionBank() QuestionBankService
	Progress() ProgressService
}

// ===== REQUESTS =====

// RecordProgressRequest is the body of POST /quizzes/progress. The learner comes from the
// bearer token, never the body.
type RecordProgressRequest struct {
	TopicID    uint   `json:"topic_id" validate:"required,gt=0"`
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	IsCorrect  *bool  `json:"is_correct" validate:"required"`
	TimeSpent  int    `json:"time_spent"`
	Score      int    `json:"score" validate:"gte=-1000,lte=1000"`
	Answer     string `json:"answer" validate:"max=4000"`
	TimedOut   bool   `json:"timed_out"`
}

type ProgressQuery struct {
	TopicID *uint
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

type SummaryQuery struct {
	Period  models.SummaryPeriod `json:"period" validate:"required,summary_period"`
	TopicID *uint               `json:"topic_id"`
	From    *time.Time          `json:"from"`
	To      *time.Time          `json:"to"`
	Refresh bool                `json:"refresh"`
}

// ImportRequest seeds a topic, its sections and their questions
type ImportRequest struct {
	Topic    ImportTopic      `json:"topic"`
	Sections []ImportSection  `json:"sections"`
	Loose    []ImportQuestion `json:"questions"`
}

type ImportTopic struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
}

type ImportSection struct {
	Name       string           `json:"name" validate:"required,max=200"`
	OrderIndex int              `json:"order_index"`
	Questions  []ImportQuestion `json:"questions"`
}

type ImportQuestion struct {
	Type             quiz.QuestionType `json:"type"`
	Content          string            `json:"content"`
	Options          []quiz.Option     `json:"options"`
	CorrectAnswer    string            `json:"correct_answer"`
	Explanation      string            `json:"explanation"`
	Images           []string          `json:"images"`
	ExplanationImage string            `json:"explanation_image"`
}

// ===== RESPONSES =====

type ProgressPage struct {
	Records []*models.ProgressRecord `json:"records"`
	Total   int64                    `json:"total"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

type SummaryBucket struct {
	Start      time.Time `json:"start"`
	Attempts   int       `json:"attempts"`
	Correct    int       `json:"correct"`
	TimedOut   int       `json:"timed_out"`
	TotalScore int       `json:"total_score"`
	TimeSpent  int       `json:"time_spent"`
	Accuracy   float64   `json:"accuracy"`
}

type PracticeSummaryResponse struct {
	LearnerID string               `json:"learner_id"`
	Period    models.SummaryPeriod `json:"period"`
	TopicID   *uint                `json:"topic_id,omitempty"`
	From      time.Time            `json:"from"`
	To        time.Time            `json:"to"`
	Buckets   []SummaryBucket      `json:"buckets"`
	Totals    SummaryBucket        `json:"totals"`
}

type ImportResult struct {
	TopicID   uint   `json:"topic_id"`
	Sections  []uint `json:"section_ids"`
	Questions int    `json:"questions"`
}
