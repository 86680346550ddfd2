package models

import "time"

// ProgressRecord is one resolved question. Rows are append-only.
type ProgressRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LearnerID  string    `json:"learner_id" gorm:"not null;size:100;index:idx_progress_learner_created"`
	TopicID    uint      `json:"topic_id" gorm:"not null;index"`
	QuestionID uint      `json:"question_id" gorm:"not null;index"`
	IsCorrect  bool      `json:"is_correct" gorm:"not null"`
	TimeSpent  int       `json:"time_spent" gorm:"not null;default:0"`
	Score      int       `json:"score" gorm:"not null;default:0"`
	Answer     string    `json:"answer" gorm:"type:text"`
	TimedOut   bool      `json:"timed_out" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"index:idx_progress_learner_created"`
}

func (ProgressRecord) TableName() string {
	return "quiz_progress"
}

type SummaryPeriod string

const (
	PeriodDaily  SummaryPeriod = "daily"
	PeriodWeekly SummaryPeriod = "weekly"
)

func (p SummaryPeriod) IsValid() bool {
	return p == PeriodDaily || p == PeriodWeekly
}

// PracticeSummary is the per learner, topic and UTC day rollup of progress records
type PracticeSummary struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	LearnerID  string    `json:"learner_id" gorm:"not null;size:100;uniqueIndex:idx_summary_bucket"`
	TopicID    uint      `json:"topic_id" gorm:"not null;uniqueIndex:idx_summary_bucket"`
	Day        time.Time `json:"day" gorm:"not null;uniqueIndex:idx_summary_bucket"`
	Attempts   int       `json:"attempts"`
	Correct    int       `json:"correct"`
	TimedOut   int       `json:"timed_out"`
	TotalScore int       `json:"total_score"`
	TimeSpent  int       `json:"time_spent"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Accuracy returns the share of correct answers in [0, 1]
func (s PracticeSummary) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// AllModels lists every table the service migrates
func AllModels() []interface{} {
	return []interface{}{
		&Topic{},
		&Section{},
		&Question{},
		&ProgressRecord{},
		&PracticeSummary{},
	}
}
